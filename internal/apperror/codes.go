package apperror

// Code identifies an error class across the API.
type Code string

// General error codes
const (
	CodeRequiredField   Code = "REQUIRED_FIELD"
	CodeInvalidInput    Code = "INVALID_INPUT"
	CodeNotFound        Code = "NOT_FOUND"
	CodeValidationError Code = "VALIDATION_ERROR"

	CodeInternalError Code = "INTERNAL_ERROR"
	CodeUnknownError  Code = "UNKNOWN_ERROR"
)

// Listing desk codes
const (
	CodeInvalidPricingOptions Code = "INVALID_PRICING_OPTIONS"
	CodeInvalidSettings       Code = "INVALID_SETTINGS"
	CodeInvalidStatus         Code = "INVALID_STATUS"
	CodeProductNotFound       Code = "PRODUCT_NOT_FOUND"
	CodeStorageError          Code = "STORAGE_ERROR"
	CodeExtractionFailed      Code = "EXTRACTION_FAILED"
	CodeGenerationFailed      Code = "GENERATION_FAILED"
	CodeExportFailed          Code = "EXPORT_FAILED"
)

var messages = map[Code]string{
	CodeRequiredField:   "Required field is missing",
	CodeInvalidInput:    "Invalid input provided",
	CodeNotFound:        "Resource not found",
	CodeValidationError: "Validation error",

	CodeInternalError: "Internal server error",
	CodeUnknownError:  "An unknown error occurred",

	CodeInvalidPricingOptions: "Invalid pricing options",
	CodeInvalidSettings:       "Invalid settings",
	CodeInvalidStatus:         "Invalid product status",
	CodeProductNotFound:       "Product not found",
	CodeStorageError:          "Storage operation failed",
	CodeExtractionFailed:      "Product extraction failed",
	CodeGenerationFailed:      "Content generation failed",
	CodeExportFailed:          "Export failed",
}
