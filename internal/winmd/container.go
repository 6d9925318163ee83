package winmd

import (
	"bytes"
	"crypto/sha256"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"

	"github.com/vmihailenco/msgpack/v5"
	"golang.org/x/text/unicode/norm"
)

const (
	// Magic identifies a metadata table container.
	Magic = "WINMD-TABLES"
	// SchemaVersion is bumped whenever the Database layout changes.
	SchemaVersion uint16 = 1
)

// ErrNotContainer is returned for files that do not carry the container magic.
var ErrNotContainer = errors.New("not a metadata container")

// Open reads and validates a container from disk.
func Open(path string) (*Database, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	db, err := Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	db.path = path
	db.digest = sha256.Sum256(data)
	if db.Name == "" {
		db.Name = filepath.Base(path)
	}
	return db, nil
}

// Decode reads a container from r. Names are normalised to NFC.
func Decode(r io.Reader) (*Database, error) {
	var db Database
	dec := msgpack.NewDecoder(r)
	if err := dec.Decode(&db); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrNotContainer, err)
	}
	if db.Magic != Magic {
		return nil, ErrNotContainer
	}
	if db.Schema != SchemaVersion {
		return nil, fmt.Errorf("unsupported container schema %d (want %d)", db.Schema, SchemaVersion)
	}
	db.normalize()
	if err := db.Validate(); err != nil {
		return nil, err
	}
	return &db, nil
}

// Encode writes db to w.
func (db *Database) Encode(w io.Writer) error {
	out := *db
	out.Magic = Magic
	out.Schema = SchemaVersion
	enc := msgpack.NewEncoder(w)
	enc.UseCompactInts(true)
	return enc.Encode(&out)
}

// Save writes db to path atomically and records the path and digest.
func (db *Database) Save(path string) error {
	var buf bytes.Buffer
	if err := db.Encode(&buf); err != nil {
		return err
	}
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	f, err := os.CreateTemp(dir, ".winmd-*")
	if err != nil {
		return err
	}
	tmp := f.Name()
	if _, err := f.Write(buf.Bytes()); err != nil {
		_ = f.Close()
		_ = os.Remove(tmp)
		return err
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(tmp)
		return err
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return err
	}
	db.path = path
	db.digest = sha256.Sum256(buf.Bytes())
	return nil
}

func (db *Database) normalize() {
	for i := range db.TypeDefs {
		db.TypeDefs[i].Name = norm.NFC.String(db.TypeDefs[i].Name)
		db.TypeDefs[i].Namespace = norm.NFC.String(db.TypeDefs[i].Namespace)
	}
	for i := range db.TypeRefs {
		db.TypeRefs[i].Name = norm.NFC.String(db.TypeRefs[i].Name)
		db.TypeRefs[i].Namespace = norm.NFC.String(db.TypeRefs[i].Namespace)
	}
	for i := range db.Fields {
		db.Fields[i].Name = norm.NFC.String(db.Fields[i].Name)
	}
	for i := range db.Methods {
		db.Methods[i].Name = norm.NFC.String(db.Methods[i].Name)
	}
	for i := range db.Params {
		db.Params[i].Name = norm.NFC.String(db.Params[i].Name)
	}
}

// Validate checks table run encoding, sort order and coded index bounds.
func (db *Database) Validate() error {
	var prevField, prevMethod uint32
	for i, td := range db.TypeDefs {
		if td.FieldList < prevField || int(td.FieldList) > len(db.Fields) {
			return fmt.Errorf("typedef %d (%s.%s): field list %d out of order", i, td.Namespace, td.Name, td.FieldList)
		}
		if td.MethodList < prevMethod || int(td.MethodList) > len(db.Methods) {
			return fmt.Errorf("typedef %d (%s.%s): method list %d out of order", i, td.Namespace, td.Name, td.MethodList)
		}
		prevField, prevMethod = td.FieldList, td.MethodList
		if err := db.checkIndex(td.Extends); err != nil {
			return fmt.Errorf("typedef %s.%s extends: %w", td.Namespace, td.Name, err)
		}
	}
	var prevParam uint32
	for i, m := range db.Methods {
		if m.ParamList < prevParam || int(m.ParamList) > len(db.Params) {
			return fmt.Errorf("method %d (%s): param list %d out of order", i, m.Name, m.ParamList)
		}
		prevParam = m.ParamList
	}
	for i, spec := range db.TypeSpecs {
		if spec.Signature.Elem != ElemGenericInst {
			return fmt.Errorf("typespec %d: expected generic instance, got %s", i, spec.Signature.Elem)
		}
		if err := spec.Signature.Validate(); err != nil {
			return fmt.Errorf("typespec %d: %w", i, err)
		}
	}
	if !slices.IsSortedFunc(db.InterfaceImpls, func(a, b InterfaceImplRow) int { return cmpU32(a.Class, b.Class) }) {
		return errors.New("interface impl table is not sorted")
	}
	for i, impl := range db.InterfaceImpls {
		if int(impl.Class) >= len(db.TypeDefs) {
			return fmt.Errorf("interface impl %d: class %d out of range", i, impl.Class)
		}
		if impl.Interface.IsNull() {
			return fmt.Errorf("interface impl %d: null interface", i)
		}
		if err := db.checkIndex(impl.Interface); err != nil {
			return fmt.Errorf("interface impl %d: %w", i, err)
		}
	}
	if !slices.IsSortedFunc(db.GenericParams, func(a, b GenericParamRow) int {
		if a.Owner != b.Owner {
			return cmpU32(a.Owner, b.Owner)
		}
		return int(a.Number) - int(b.Number)
	}) {
		return errors.New("generic param table is not sorted")
	}
	if !slices.IsSortedFunc(db.CustomAttributes, func(a, b CustomAttributeRow) int {
		switch {
		case a.Parent.less(b.Parent):
			return -1
		case b.Parent.less(a.Parent):
			return 1
		}
		return 0
	}) {
		return errors.New("custom attribute table is not sorted")
	}
	for i, ca := range db.CustomAttributes {
		if ca.Type.Tag != TagTypeRef && ca.Type.Tag != TagTypeDef {
			return fmt.Errorf("custom attribute %d: bad attribute type %s", i, ca.Type)
		}
		if err := db.checkIndex(ca.Type); err != nil {
			return fmt.Errorf("custom attribute %d: %w", i, err)
		}
	}
	if !slices.IsSortedFunc(db.Properties, func(a, b PropertyRow) int { return cmpU32(a.Owner, b.Owner) }) {
		return errors.New("property table is not sorted")
	}
	if !slices.IsSortedFunc(db.Events, func(a, b EventRow) int { return cmpU32(a.Owner, b.Owner) }) {
		return errors.New("event table is not sorted")
	}
	return nil
}

func (db *Database) checkIndex(c TypeDefOrRef) error {
	var n int
	switch c.Tag {
	case TagNone:
		return nil
	case TagTypeDef:
		n = len(db.TypeDefs)
	case TagTypeRef:
		n = len(db.TypeRefs)
	case TagTypeSpec:
		n = len(db.TypeSpecs)
	default:
		return fmt.Errorf("unknown coded index tag %d", c.Tag)
	}
	if int(c.Row) >= n {
		return fmt.Errorf("%s out of range (%d rows)", c, n)
	}
	return nil
}

func cmpU32(a, b uint32) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}
