package git

import "time"

// CommitInfo describes a commit of the rules repository.
type CommitInfo struct {
	SHA       string    `json:"sha"`
	Author    string    `json:"author"`
	Timestamp time.Time `json:"timestamp"`
	Message   string    `json:"message"`
}

// Short returns the abbreviated SHA used in logs.
func (c *CommitInfo) Short() string {
	return shortSHA(c.SHA)
}

// PullResult is the outcome of a pull.
type PullResult struct {
	FromSHA      string
	ToSHA        string
	ChangedFiles []string
}

// HadChanges reports whether the pull moved HEAD.
func (r *PullResult) HadChanges() bool {
	return r.FromSHA != r.ToSHA
}

func shortSHA(sha string) string {
	if len(sha) > 8 {
		return sha[:8]
	}
	return sha
}
