package response

type ErrCode int

const (
	_ ErrCode = 10000 + iota
	ErrCodeMalformedJSON              // 10001
	ErrCodeRequestBody                // 10002
	ErrCodeResourceExists             // 10003
	ErrCodeResourceNotFound           // 10004
	ErrCodeInstrumentNotFound         // 10005
	ErrCodeInstrumentNotConnected     // 10006
	ErrCodeInstrumentTypeUnSupported  // 10007
	ErrCodeRampAlreadyRunning         // 10008
	ErrCodeRampNotRunning             // 10009
	ErrCodeLoggingAlreadyActive       // 10010
	ErrCodeLoggingNotActive           // 10011
	ErrCodeExportFailed               // 10012
	ErrCodeActionUnSupported          // 10013
	ErrCodeTooManyJsonPatchOperations // 10014
)

// !!! IMPORTANT PLEASE READ FIRST !!!
// You SHOULD add new code at the end, and append comment of number
// Meanwhile, the corresponding error message SHOULD be appended in response.errors
// The order MUST be consistent between them
