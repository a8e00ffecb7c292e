package errors

// Convenience functions for common error patterns

// Config errors

func ConfigNotFound(path string) *DocSiteError {
	return New(CategoryConfig, SeverityFatal, "descriptor file not found").
		WithContext("path", path)
}

func ConfigParse(path string, cause error) *DocSiteError {
	return Wrap(cause, CategoryConfig, SeverityFatal, "descriptor could not be parsed").
		WithContext("path", path)
}

func ValidationFailed(field, reason string) *DocSiteError {
	return New(CategoryValidation, SeverityFatal, "validation failed").
		WithContext("field", field).
		WithContext("reason", reason)
}

// Content and manifest errors

func ContentIndexError(root string, cause error) *DocSiteError {
	return Wrap(cause, CategoryContent, SeverityFatal, "content index failed").
		WithContext("root", root)
}

func ManifestError(path string, cause error) *DocSiteError {
	return Wrap(cause, CategoryManifest, SeverityFatal, "web manifest invalid").
		WithContext("path", path)
}

// Build pipeline errors

func BuildFailed(stage string, cause error) *DocSiteError {
	return Wrap(cause, CategoryBuild, SeverityFatal, "build failed").
		WithContext("stage", stage)
}

func WriteError(path string, cause error) *DocSiteError {
	return Wrap(cause, CategoryFileSystem, SeverityFatal, "write failed").
		WithContext("path", path)
}

// Internal errors

func InternalError(message string, cause error) *DocSiteError {
	return Wrap(cause, CategoryInternal, SeverityFatal, message)
}
