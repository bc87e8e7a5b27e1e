package printer

import (
	"encoding/hex"
	"encoding/json"

	"github.com/joshuapare/cehive/hive"
	"github.com/joshuapare/cehive/hive/values"
)

type jsonKey struct {
	Name        string      `json:"name"`
	Path        string      `json:"path,omitempty"`
	EntryID     uint32      `json:"entry_id,omitempty"`
	Offset      int         `json:"offset,omitempty"`
	Flags       uint16      `json:"flags,omitempty"`
	Placeholder bool        `json:"placeholder,omitempty"`
	Suspect     bool        `json:"suspect,omitempty"`
	Error       string      `json:"error,omitempty"`
	SubkeyCount int         `json:"subkey_count"`
	ValueCount  int         `json:"value_count"`
	Values      []jsonValue `json:"values,omitempty"`
	Children    []jsonKey   `json:"children,omitempty"`
}

type jsonValue struct {
	Name    string      `json:"name"`
	Type    string      `json:"type"`
	Data    interface{} `json:"data"`
	Size    int         `json:"size"`
	Suspect bool        `json:"suspect,omitempty"`
	Error   string      `json:"error,omitempty"`
}

func (p *Printer) buildJSONKey(id hive.KeyID, depth int, recursive bool) jsonKey {
	k := p.tree.Key(id)
	jk := jsonKey{
		Name:        keyName(k),
		Path:        p.tree.Path(id),
		Placeholder: k.Placeholder,
		Suspect:     k.Suspect,
		SubkeyCount: len(k.Children),
		ValueCount:  len(k.Values),
	}
	if k.Err != nil {
		jk.Error = k.Err.Error()
	}
	if p.opts.PrintMetadata && !k.Synthetic {
		jk.EntryID = k.EntryID
		jk.Offset = k.Offset
		jk.Flags = k.Flags
	}

	if p.opts.ShowValues {
		for _, vid := range k.Values {
			jk.Values = append(jk.Values, p.buildJSONValue(vid))
		}
	}

	if recursive && (p.opts.MaxDepth == 0 || depth+1 < p.opts.MaxDepth) {
		for _, cid := range k.Children {
			jk.Children = append(jk.Children, p.buildJSONKey(cid, depth+1, true))
		}
	}
	return jk
}

func (p *Printer) buildJSONValue(id hive.ValueID) jsonValue {
	v := p.tree.Value(id)
	jv := jsonValue{
		Name:    v.Name,
		Type:    v.Type.String(),
		Size:    len(v.Raw),
		Suspect: v.Suspect,
	}
	switch {
	case v.Placeholder:
		jv.Error = v.Err.Error()
	case v.Data.Err != nil:
		jv.Error = v.Data.Err.Error()
	}
	jv.Data = p.jsonData(v)
	return jv
}

// jsonData returns strings and integers as native JSON values and byte
// payloads as hex.
func (p *Printer) jsonData(v hive.Value) interface{} {
	if v.Placeholder {
		return nil
	}
	switch v.Data.Kind {
	case values.KindString, values.KindStrings, values.KindUint32, values.KindUint64:
		return v.Data.Interface()
	default:
		data := v.Data.Bytes
		if p.opts.MaxValueBytes > 0 && len(data) > p.opts.MaxValueBytes {
			data = data[:p.opts.MaxValueBytes]
		}
		return hex.EncodeToString(data)
	}
}

func (p *Printer) encode(v interface{}) error {
	enc := json.NewEncoder(p.writer)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func (p *Printer) printKeyJSON(id hive.KeyID) error {
	return p.encode(p.buildJSONKey(id, 0, false))
}

func (p *Printer) printValueJSON(id hive.ValueID) error {
	return p.encode(p.buildJSONValue(id))
}

func (p *Printer) printTreeJSON(id hive.KeyID) error {
	return p.encode(p.buildJSONKey(id, 0, true))
}
