package features

// frame is the lexical environment of the body being visited. An empty
// scope tag means the notebook's main scope.
type frame struct {
	scope     string
	globals   map[string]struct{}
	nonlocals map[string]struct{}
}

func newFrame(scope string) frame {
	return frame{
		scope:     scope,
		globals:   make(map[string]struct{}),
		nonlocals: make(map[string]struct{}),
	}
}

// resolve applies global/nonlocal overrides to the ambient scope tag.
// Nonlocal wins when a name is declared both ways.
func (f frame) resolve(name string) string {
	scope := f.scope
	if name == "" {
		return scope
	}
	if _, ok := f.globals[name]; ok {
		scope = ScopeGlobal
	}
	if _, ok := f.nonlocals[name]; ok {
		scope = ScopeNonlocal
	}
	return scope
}

// enter pushes a fresh frame and returns the function that restores the
// previous one.
func (v *visitor) enter(scope string) func() {
	saved := v.frame
	v.frame = newFrame(scope)
	return func() { v.frame = saved }
}

var scopeSlots = map[string]int{
	ScopeClass:    slotClass,
	ScopeGlobal:   slotGlobal,
	ScopeNonlocal: slotNonlocal,
	ScopeLocal:    slotLocal,
}

// count increments a scoped construct for varname ("" for attribute and
// subscript targets) and returns the effective scope.
func (v *visitor) count(c Construct, varname string) string {
	scope := v.frame.resolve(varname)
	if slot, ok := scopeSlots[scope]; ok {
		v.counters.inc(scopedCategory(c, slot))
	}
	v.counters.inc(scopedCategory(c, slotTotal))
	return scope
}

// countName records an identifier usage in the name table.
func (v *visitor) countName(name, usage string) {
	scope := v.frame.resolve(name)
	if scope == "" {
		scope = ScopeMain
	}
	v.names.Add(scope, usage, name, 1)
}
