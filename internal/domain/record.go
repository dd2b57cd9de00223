package domain

// Field is a single name/value pair produced by a parser.
type Field struct {
	Name  string
	Value string
}

// Record is an ordered field map describing one parsed item.
type Record struct {
	fields []Field
	index  map[string]int
}

// NewRecord builds a record from alternating name/value pairs; a trailing name without value is ignored.
func NewRecord(pairs ...string) Record {
	var r Record
	for i := 0; i+1 < len(pairs); i += 2 {
		r.Set(pairs[i], pairs[i+1])
	}
	return r
}

// Set assigns value to name, keeping the original position of an existing field.
func (r *Record) Set(name, value string) {
	if r.index == nil {
		r.index = map[string]int{}
	}
	if i, ok := r.index[name]; ok {
		r.fields[i].Value = value
		return
	}
	r.index[name] = len(r.fields)
	r.fields = append(r.fields, Field{Name: name, Value: value})
}

// Get returns the value for name.
func (r Record) Get(name string) (string, bool) {
	i, ok := r.index[name]
	if !ok {
		return "", false
	}
	return r.fields[i].Value, true
}

// Fields returns a copy of the fields in insertion order.
func (r Record) Fields() []Field {
	out := make([]Field, len(r.fields))
	copy(out, r.fields)
	return out
}

// Len is the number of fields.
func (r Record) Len() int {
	return len(r.fields)
}

// Clone returns an independent copy.
func (r Record) Clone() Record {
	var c Record
	for _, f := range r.fields {
		c.Set(f.Name, f.Value)
	}
	return c
}

// Map flattens the record; ordering is lost.
func (r Record) Map() map[string]string {
	out := make(map[string]string, len(r.fields))
	for _, f := range r.fields {
		out[f.Name] = f.Value
	}
	return out
}
