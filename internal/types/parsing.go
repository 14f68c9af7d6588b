package types

// FunctionSpan is a function or method definition found by a syntax parser.
type FunctionSpan struct {
	Name       string // The function name, empty for anonymous functions
	FilePath   string // The file path where the function is defined
	StartLine  int    // The 1-based line the definition starts on
	EndLine    int    // The 1-based line the definition ends on
	Parameters int    // Number of declared parameters
}

// Lines returns the number of lines the function spans.
func (f FunctionSpan) Lines() int {
	return f.EndLine - f.StartLine + 1
}

// ChangedFile is one file of a pull request, at the head revision.
type ChangedFile struct {
	Path     string `json:"path"`
	Language string `json:"language"`
	Content  string `json:"content"`
	// Patch is the unified-diff hunk text GitHub returns for the file.
	Patch string `json:"patch,omitempty"`
	// SHA is the blob SHA at head, needed to commit fixes back.
	SHA    string `json:"sha,omitempty"`
	Status string `json:"status,omitempty"`
}

// PullRequest is the metadata the pipeline needs about the reviewed PR.
type PullRequest struct {
	Owner       string   `json:"owner"`
	Repo        string   `json:"repo"`
	Number      int      `json:"number"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	HeadSHA     string   `json:"head_sha"`
	HeadRef     string   `json:"head_ref"`
	BaseBranch  string   `json:"base_branch"`
	Labels      []string `json:"labels"`
}

func (p PullRequest) FullName() string {
	return p.Owner + "/" + p.Repo
}
