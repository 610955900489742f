// Package strikes tracks repeat offenders.
//
// Every violation adds a strike to its author, weighted by severity. An
// author's standing is the sum of strike points inside a trailing window;
// authors at or above the threshold are restricted. Strikes live in a Store,
// either in memory or in a pure-Go SQLite database.
package strikes
