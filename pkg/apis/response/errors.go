package response

var errors = map[ErrCode]string{
	ErrCodeMalformedJSON:              "The JSON you provided was not well-formed or did not validate against our published format.",
	ErrCodeRequestBody:                "Request body error",
	ErrCodeResourceExists:             "Resource %s already exists.",
	ErrCodeResourceNotFound:           "Resource %s not found.",
	ErrCodeInstrumentNotFound:         "Instrument %s not found.",
	ErrCodeInstrumentNotConnected:     "Instrument %s not connected.",
	ErrCodeInstrumentTypeUnSupported:  "Instrument type %s not supported.",
	ErrCodeRampAlreadyRunning:         "A voltage ramp is already running.",
	ErrCodeRampNotRunning:             "No voltage ramp is running.",
	ErrCodeLoggingAlreadyActive:       "Data logging is already active.",
	ErrCodeLoggingNotActive:           "Data logging is not active.",
	ErrCodeExportFailed:               "Failed to export log data to %s.",
	ErrCodeActionUnSupported:          "Action %s not supported.",
	ErrCodeTooManyJsonPatchOperations: "The allowed maximum operations in a JSON patch is %d.",
}

// !!! IMPORTANT PLEASE READ FIRST !!!
// You SHOULD add new code at the end of enum firstly.

var ErrMalformedJSON = &responseError{
	Code:    ErrCodeMalformedJSON,
	Message: errors[ErrCodeMalformedJSON],
}

var ErrRequestBody = &responseError{
	Code:    ErrCodeRequestBody,
	Message: errors[ErrCodeRequestBody],
}

var ErrRampAlreadyRunning = &responseError{
	Code:    ErrCodeRampAlreadyRunning,
	Message: errors[ErrCodeRampAlreadyRunning],
}

var ErrRampNotRunning = &responseError{
	Code:    ErrCodeRampNotRunning,
	Message: errors[ErrCodeRampNotRunning],
}

var ErrLoggingAlreadyActive = &responseError{
	Code:    ErrCodeLoggingAlreadyActive,
	Message: errors[ErrCodeLoggingAlreadyActive],
}

var ErrLoggingNotActive = &responseError{
	Code:    ErrCodeLoggingNotActive,
	Message: errors[ErrCodeLoggingNotActive],
}

func ErrResourceExists(name string) *responseError {
	return generateError(ErrCodeResourceExists, name)
}

func ErrResourceNotFound(name string) *responseError {
	return generateError(ErrCodeResourceNotFound, name)
}

func ErrInstrumentNotFound(id string) *responseError {
	return generateError(ErrCodeInstrumentNotFound, id)
}

func ErrInstrumentNotConnected(id string) *responseError {
	return generateError(ErrCodeInstrumentNotConnected, id)
}

func ErrInstrumentTypeUnSupported(instrumentType string) *responseError {
	return generateError(ErrCodeInstrumentTypeUnSupported, instrumentType)
}

func ErrExportFailed(path string) *responseError {
	return generateError(ErrCodeExportFailed, path)
}

func ErrActionUnSupported(action string) *responseError {
	return generateError(ErrCodeActionUnSupported, action)
}

func ErrTooManyJsonPatchOperations(max int) *responseError {
	return generateError(ErrCodeTooManyJsonPatchOperations, max)
}
