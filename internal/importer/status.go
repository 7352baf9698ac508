package importer

// StatusCode is the terminal outcome for one document.
type StatusCode int

const (
	StatusSuccess StatusCode = iota
	StatusRejected
	StatusError
)

func (c StatusCode) String() string {
	switch c {
	case StatusSuccess:
		return "success"
	case StatusRejected:
		return "rejected"
	case StatusError:
		return "error"
	}
	return "unknown"
}

// Status is a tagged outcome: exactly one variant holds. Filter is set
// only for rejections, Err only for errors.
type Status struct {
	Code        StatusCode
	Filter      string
	Description string
	Err         error
}

// Success returns a success status.
func Success() Status {
	return Status{Code: StatusSuccess}
}

// Rejected returns a rejection citing the filter that declined the
// document. Filter may be empty for phase-level include aggregation.
func Rejected(filter, description string) Status {
	return Status{Code: StatusRejected, Filter: filter, Description: description}
}

// Errored returns an error status.
func Errored(err error, description string) Status {
	return Status{Code: StatusError, Err: err, Description: description}
}
