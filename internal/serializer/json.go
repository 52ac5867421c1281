package serializer

import (
	"encoding/json"
	"fmt"

	"github.com/brizzai/netcall/internal/neterror"
	"github.com/brizzai/netcall/internal/params"
	"github.com/brizzai/netcall/internal/request"
)

// JSON encodes parameters as one JSON object in insertion order. Files are
// ignored.
type JSON struct{}

func (*JSON) Serialize(p *params.Map, _ []request.File) ([]byte, error) {
	if p == nil {
		p = params.NewMap()
	}
	data, err := json.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", neterror.ErrInvalidParameterSerialization, err)
	}
	return data, nil
}
