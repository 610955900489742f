// Package git keeps the rule-set file in a Git repository.
//
// The repository is cloned at startup and polled for new commits. When a
// pull changes the rule-set file the watcher asks the policy manager to
// reload; an invalid file leaves the previous rules active and the bad
// commit is reported in the log until a newer commit fixes it.
//
//	repo, err := git.NewRepository(cfg.Filter.Git)
//	if err != nil {
//		return err
//	}
//	if err := repo.Sync(ctx); err != nil {
//		return err
//	}
//	cfg.Filter.RulesFile = repo.RulesPath()
//
//	manager, err := policy.NewManager(cfg.Filter)
//	...
//	go git.NewWatcher(repo, cfg.Filter.Git.PollInterval, manager.Reload).Run(ctx)
package git
