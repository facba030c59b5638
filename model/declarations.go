package model

// DeclKind identifies the variant of a Declaration.
type DeclKind int

const (
	KindRecord DeclKind = iota
	KindUnion
	KindEnumeration
	KindSingleton
	KindAlias
	KindConstantGroup
)

func (k DeclKind) String() string {
	switch k {
	case KindRecord:
		return "record"
	case KindUnion:
		return "union"
	case KindEnumeration:
		return "enumeration"
	case KindSingleton:
		return "singleton"
	case KindAlias:
		return "alias"
	case KindConstantGroup:
		return "constants"
	}
	return "unknown"
}

// Declaration is one named schema type.
type Declaration interface {
	DeclName() string
	Kind() DeclKind
}

// Field is one member of a Record, in declaration order.
type Field struct {
	Name     string
	Type     TypeExpr
	Optional bool
	Doc      string
}

// Record is a product type with named fields. A record with TypeParams is
// generic and must be instantiated through Generic.
type Record struct {
	Name       string
	TypeParams []string
	Fields     []Field
	// Parents lists the unions this record is declared as a member of.
	Parents []string
	Doc     string
}

// Union is a closed set of member declarations. Members are names of
// Singleton, Record or Alias declarations; their order is significant.
type Union struct {
	Name    string
	Members []Named
	Doc     string
}

// Enumeration is an ordered set of data-less cases.
type Enumeration struct {
	Name  string
	Cases []string
	Doc   string
}

// Singleton is a type inhabited by exactly one literal value.
type Singleton struct {
	Name string
	// Value is the literal inhabitant. A nil Value means the text of Name.
	Value Value
	// Invariants are extra static facts published with the singleton.
	Invariants []Constant
	Parents    []string
	Doc        string
}

// Alias binds a name to another type expression.
type Alias struct {
	Name       string
	TypeParams []string
	Target     TypeExpr
	Doc        string
}

// Constant is one entry of a ConstantGroup or of a singleton's invariants.
// Type may be nil, in which case it is inferred from Value.
type Constant struct {
	Name  string
	Type  TypeExpr
	Value Value
}

// ConstantGroup is a named bag of compile-time values.
type ConstantGroup struct {
	Name    string
	Entries []Constant
	Doc     string
}

func (d *Record) DeclName() string        { return d.Name }
func (d *Union) DeclName() string         { return d.Name }
func (d *Enumeration) DeclName() string   { return d.Name }
func (d *Singleton) DeclName() string     { return d.Name }
func (d *Alias) DeclName() string         { return d.Name }
func (d *ConstantGroup) DeclName() string { return d.Name }

func (*Record) Kind() DeclKind        { return KindRecord }
func (*Union) Kind() DeclKind         { return KindUnion }
func (*Enumeration) Kind() DeclKind   { return KindEnumeration }
func (*Singleton) Kind() DeclKind     { return KindSingleton }
func (*Alias) Kind() DeclKind         { return KindAlias }
func (*ConstantGroup) Kind() DeclKind { return KindConstantGroup }

// Tag returns the literal inhabitant of the singleton, defaulting to its name.
func (d *Singleton) Tag() Value {
	if d.Value == nil {
		return TextLit{V: d.Name}
	}
	return d.Value
}

// TypeParamsOf returns the type parameters of a generic declaration.
func TypeParamsOf(d Declaration) []string {
	switch dd := d.(type) {
	case *Record:
		return dd.TypeParams
	case *Alias:
		return dd.TypeParams
	}
	return nil
}

// Module owns an ordered list of declarations. Path is the logical package
// path the output file mirrors, e.g. "transport/lines"; it defaults to Name.
type Module struct {
	Name         string
	Path         string
	Declarations []Declaration
}

// PackagePath returns Path, or Name when Path is unset.
func (m *Module) PackagePath() string {
	if m.Path != "" {
		return m.Path
	}
	return m.Name
}

// Schema is the complete input of a generation run.
type Schema struct {
	Modules []*Module
	// Requires is an optional semver constraint on the generator version.
	Requires string
}
