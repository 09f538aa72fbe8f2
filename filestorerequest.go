package cfdp

// FilestoreAction enumerates the filesystem operations that can be
// requested via a Metadata PDU's filestore-request list and applied by the
// destination handler during SENDING_FINISHED.
type FilestoreAction int

const (
	FilestoreActionCreateFile FilestoreAction = iota
	FilestoreActionDeleteFile
	FilestoreActionRenameFile
	FilestoreActionAppendFile
	FilestoreActionReplaceFile
	FilestoreActionCreateDirectory
	FilestoreActionRemoveDirectory
	FilestoreActionDenyFile
	FilestoreActionDenyDirectory
)

func (a FilestoreAction) String() string {
	switch a {
	case FilestoreActionCreateFile:
		return "CREATE_FILE"
	case FilestoreActionDeleteFile:
		return "DELETE_FILE"
	case FilestoreActionRenameFile:
		return "RENAME_FILE"
	case FilestoreActionAppendFile:
		return "APPEND_FILE"
	case FilestoreActionReplaceFile:
		return "REPLACE_FILE"
	case FilestoreActionCreateDirectory:
		return "CREATE_DIRECTORY"
	case FilestoreActionRemoveDirectory:
		return "REMOVE_DIRECTORY"
	case FilestoreActionDenyFile:
		return "DENY_FILE"
	case FilestoreActionDenyDirectory:
		return "DENY_DIRECTORY"
	default:
		return "UNKNOWN"
	}
}

// FilestoreRequest is one entry of a Metadata PDU's filestore-request list.
type FilestoreRequest struct {
	Action         FilestoreAction
	FirstFilename  string
	SecondFilename string // used by RENAME_FILE and REPLACE_FILE; APPEND_FILE opens FirstFilename only and does not read SecondFilename
}

// FilestoreResponse reports the outcome of applying a FilestoreRequest,
// carried informationally in the Finished PDU's filestore-response list.
type FilestoreResponse struct {
	Request FilestoreRequest
	Success bool
	Message string
}
