package request

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/brizzai/netcall/internal/params"
	"gopkg.in/yaml.v3"
)

// document is the YAML form of an Endpoint.
type document struct {
	Scheme      string            `yaml:"scheme"`
	Host        string            `yaml:"host"`
	Path        string            `yaml:"path"`
	Method      string            `yaml:"method"`
	Headers     map[string]string `yaml:"headers"`
	ContentType string            `yaml:"content_type"`
	Boundary    string            `yaml:"boundary"`
	Parameters  yaml.Node         `yaml:"parameters"`
	Files       []fileDocument    `yaml:"files"`
}

type fileDocument struct {
	Name     string `yaml:"name"`
	FileName string `yaml:"filename"`
	MimeType string `yaml:"mime_type"`
	// Path is resolved against the directory of the descriptor file.
	Path    string `yaml:"path"`
	Content string `yaml:"content"`
}

// LoadFile reads a YAML endpoint descriptor from path.
func LoadFile(path string, opts ...Option) (*Endpoint, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read descriptor: %w", err)
	}
	return Parse(data, filepath.Dir(path), opts...)
}

// Parse builds an Endpoint from a YAML descriptor. Parameters keep the order
// in which they appear in the document. Options are applied last.
func Parse(data []byte, baseDir string, opts ...Option) (*Endpoint, error) {
	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse descriptor: %w", err)
	}
	if doc.Host == "" {
		return nil, fmt.Errorf("descriptor host is required")
	}

	base := []Option{WithHeaders(doc.Headers)}
	if doc.Scheme != "" {
		base = append(base, WithScheme(doc.Scheme))
	}
	if doc.Method != "" {
		m, ok := ParseMethod(doc.Method)
		if !ok {
			return nil, fmt.Errorf("unsupported method %q", doc.Method)
		}
		base = append(base, WithMethod(m))
	}

	ct, err := parseContentType(doc.ContentType, doc.Boundary)
	if err != nil {
		return nil, err
	}
	base = append(base, WithContentType(ct))

	if doc.Parameters.Kind != 0 {
		v, err := nodeValue(&doc.Parameters)
		if err != nil {
			return nil, fmt.Errorf("invalid parameters: %w", err)
		}
		if v.Kind() != params.KindMap {
			return nil, fmt.Errorf("parameters must be a mapping")
		}
		base = append(base, WithParams(v.AsMap()))
	}

	for _, fd := range doc.Files {
		f, err := fd.load(baseDir)
		if err != nil {
			return nil, err
		}
		base = append(base, WithFiles(f))
	}

	return New(doc.Host, doc.Path, append(base, opts...)...), nil
}

func parseContentType(name, boundary string) (ContentType, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "json":
		return JSON, nil
	case "form_urlencoded", "form-urlencoded", "urlencoded":
		return FormURLEncoded, nil
	case "form_data", "form-data", "multipart":
		return FormData(boundary), nil
	default:
		return ContentType{}, fmt.Errorf("unsupported content type %q", name)
	}
}

func (fd fileDocument) load(baseDir string) (File, error) {
	if fd.Name == "" {
		return File{}, fmt.Errorf("file attachment name is required")
	}
	data := []byte(fd.Content)
	fileName := fd.FileName
	if fd.Path != "" {
		p := fd.Path
		if !filepath.IsAbs(p) {
			p = filepath.Join(baseDir, p)
		}
		var err error
		data, err = os.ReadFile(p)
		if err != nil {
			return File{}, fmt.Errorf("failed to read attachment %s: %w", fd.Name, err)
		}
		if fileName == "" {
			fileName = filepath.Base(p)
		}
	}
	mime := MimeType(fd.MimeType)
	if mime == "" {
		mime = MimeOctetStream
	}
	return NewFile(fd.Name, fileName, mime, data), nil
}

func nodeValue(n *yaml.Node) (params.Value, error) {
	switch n.Kind {
	case yaml.DocumentNode:
		if len(n.Content) == 0 {
			return params.Value{}, nil
		}
		return nodeValue(n.Content[0])
	case yaml.AliasNode:
		return nodeValue(n.Alias)
	case yaml.MappingNode:
		m := params.NewMap()
		for i := 0; i+1 < len(n.Content); i += 2 {
			v, err := nodeValue(n.Content[i+1])
			if err != nil {
				return params.Value{}, err
			}
			m.Set(n.Content[i].Value, v)
		}
		return params.Object(m), nil
	case yaml.SequenceNode:
		vs := make([]params.Value, 0, len(n.Content))
		for _, c := range n.Content {
			v, err := nodeValue(c)
			if err != nil {
				return params.Value{}, err
			}
			vs = append(vs, v)
		}
		return params.List(vs...), nil
	case yaml.ScalarNode:
		return scalarValue(n)
	}
	return params.Value{}, fmt.Errorf("unexpected yaml node at line %d", n.Line)
}

func scalarValue(n *yaml.Node) (params.Value, error) {
	switch n.ShortTag() {
	case "!!int":
		var i int64
		if err := n.Decode(&i); err != nil {
			return params.Value{}, err
		}
		return params.Int(i), nil
	case "!!float":
		var f float64
		if err := n.Decode(&f); err != nil {
			return params.Value{}, err
		}
		return params.Float(f), nil
	case "!!bool":
		var b bool
		if err := n.Decode(&b); err != nil {
			return params.Value{}, err
		}
		return params.Bool(b), nil
	case "!!null":
		return params.Value{}, nil
	default:
		return params.String(n.Value), nil
	}
}
