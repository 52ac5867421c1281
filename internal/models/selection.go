package models

// OperationOverride replaces the description of one method on a path.
type OperationOverride struct {
	Method         string `yaml:"method"`
	NewDescription string `yaml:"new_description"`
}

type PathDescription struct {
	Path    string              `yaml:"path"`
	Updates []OperationOverride `yaml:"updates"`
}

// PathSelection lists the methods of a path that stay callable.
type PathSelection struct {
	Path    string   `yaml:"path"`
	Methods []string `yaml:"methods"`
}

// OperationSelection narrows an OpenAPI document to the operations a
// netcall user wants to call, optionally rewording their descriptions.
type OperationSelection struct {
	Descriptions []PathDescription `yaml:"descriptions,omitempty"`
	Routes       []PathSelection   `yaml:"routes,omitempty"`
}
