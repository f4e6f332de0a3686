package meta

import (
	"errors"
)

var (
	// ErrDuplicateResource resource with the same name already exists in the project
	ErrDuplicateResource = errors.New("resource with the same name already exists")
	// ErrResourceNotFound resource does not exist
	ErrResourceNotFound = errors.New("resource not found")
	// ErrInvalidResource resource definition is invalid
	ErrInvalidResource = errors.New("invalid resource definition")
	// ErrProjectNotFound project does not exist
	ErrProjectNotFound = errors.New("project not found")
	// ErrBuildNotFound build is not known
	ErrBuildNotFound = errors.New("build not found")
	// ErrBuildExists build with the same id is known
	ErrBuildExists = errors.New("build already exists")
	// ErrBuildState build is not in the expected state
	ErrBuildState = errors.New("invalid build state")
	// ErrArtifactNotFound build artifact does not exist
	ErrArtifactNotFound = errors.New("artifact not found")
)
