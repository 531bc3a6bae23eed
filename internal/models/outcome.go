package models

// CaptureOutcome is the per-URL result of one capture run. Exactly one
// outcome is produced per input URL, in input order. Success is true
// exactly when Error is empty.
type CaptureOutcome struct {
	URL     string `json:"url"`
	Folder  string `json:"folder"`
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

// OutcomeOK builds a successful outcome for a URL.
func OutcomeOK(url, folder string) CaptureOutcome {
	return CaptureOutcome{
		URL:     url,
		Folder:  folder,
		Success: true,
	}
}

// OutcomeFail builds a failed outcome carrying the error message.
func OutcomeFail(url, folder string, err error) CaptureOutcome {
	msg := "capture failed"
	if err != nil {
		msg = err.Error()
	}
	return CaptureOutcome{
		URL:    url,
		Folder: folder,
		Error:  msg,
	}
}
