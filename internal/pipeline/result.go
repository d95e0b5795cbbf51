package pipeline

// Result summarizes a run. GeneratedFiles lists the absolute paths of every
// page artifact the run produced or confirmed, in page order, including work
// completed before an abort. Err carries the terminating failure, if any.
type Result struct {
	Success        bool
	Message        string
	GeneratedFiles []string
	Err            error
}
