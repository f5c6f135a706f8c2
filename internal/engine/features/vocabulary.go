package features

// Category indexes one counter of the fixed vocabulary.
type Category int

// Custom counters, in output order.
const (
	ImportStar Category = iota
	FunctionsWithDecorators
	ClassesWithDecorators
	ClassesWithBases
	DelName
	DelAttr
	DelItem
	AssignName
	AssignAttr
	AssignItem
	IPython
	IPythonSuperset
	Statements
	Expressions

	firstScoped
)

// Construct is a definition or binding counted per scope.
type Construct int

const (
	ConstructImportFrom Construct = iota
	ConstructImport
	ConstructAssign
	ConstructDelete
	ConstructFunctionDef
	ConstructClassDef

	numConstructs
)

var constructNames = [numConstructs]string{
	ConstructImportFrom:  "importfrom",
	ConstructImport:      "import",
	ConstructAssign:      "assign",
	ConstructDelete:      "delete",
	ConstructFunctionDef: "functiondef",
	ConstructClassDef:    "classdef",
}

// Scoped counter slots. Main scope has no slot of its own and only
// contributes to the total.
const (
	slotClass = iota
	slotGlobal
	slotNonlocal
	slotLocal
	slotTotal

	numSlots
)

var slotPrefixes = [numSlots]string{"class", "global", "nonlocal", "local", "total"}

const firstNode = firstScoped + Category(int(numConstructs)*numSlots)

var moduleNodes = [...]string{"module", "interactive", "expression", "suite"}

var statementNodes = [...]string{
	"functiondef", "asyncfunctiondef", "classdef", "return",
	"delete", "assign", "augassign", "annassign", "print",
	"for", "asyncfor", "while", "if", "with", "asyncwith",
	"raise", "try", "tryexcept", "tryfinally", "assert",
	"import", "importfrom", "exec", "global", "nonlocal", "expr",
	"pass", "break", "continue",
}

var expressionNodes = [...]string{
	"boolop", "binop", "unaryop", "lambda", "ifexp",
	"dict", "set", "listcomp", "setcomp", "dictcomp", "generatorexp",
	"await", "yield", "yieldfrom",
	"compare", "call", "num", "str", "formattedvalue", "joinedstr",
	"bytes", "nameconstant", "ellipsis", "constant",
	"attribute", "subscript", "starred", "name", "list", "tuple",
}

var otherNodes = [...]string{
	"load", "store", "del", "augload", "augstore", "param",
	"slice", "index",
	"and", "or",
	"add", "sub", "mult", "matmult", "div", "mod", "pow", "lshift",
	"rshift", "bitor", "bitxor", "bitand", "floordiv",
	"invert", "not", "uadd", "usub",
	"eq", "noteq", "lt", "lte", "gt", "gte", "is", "isnot", "in", "notin",
	"comprehension", "excepthandler", "arguments", "arg",
	"keyword", "alias", "withitem",
}

const numCategories = int(firstNode) + len(moduleNodes) + len(statementNodes) + len(expressionNodes) + len(otherNodes)

// OthersKey is the free-text overflow field.
const OthersKey = "ast_others"

var (
	categoryKeys  [numCategories]string
	categoryIndex = make(map[string]Category, numCategories)
	nodeIndex     = make(map[string]Category, numCategories)
	isStatement   [numCategories]bool
	isExpression  [numCategories]bool
)

func init() {
	custom := [...]string{
		"import_star", "functions_with_decorators",
		"classes_with_decorators", "classes_with_bases",
		"delname", "delattr", "delitem",
		"assignname", "assignattr", "assignitem",
		"ipython", "ipython_superset",
		"ast_statements", "ast_expressions",
	}
	for i, key := range custom {
		categoryKeys[i] = key
	}
	for c := Construct(0); c < numConstructs; c++ {
		for slot := 0; slot < numSlots; slot++ {
			categoryKeys[scopedCategory(c, slot)] = slotPrefixes[slot] + "_" + constructNames[c]
		}
	}

	next := firstNode
	add := func(names []string, flags *[numCategories]bool) {
		for _, name := range names {
			categoryKeys[next] = "ast_" + name
			nodeIndex[name] = next
			if flags != nil {
				flags[next] = true
			}
			next++
		}
	}
	add(moduleNodes[:], nil)
	add(statementNodes[:], &isStatement)
	add(expressionNodes[:], &isExpression)
	add(otherNodes[:], nil)

	for i, key := range categoryKeys {
		categoryIndex[key] = Category(i)
	}
}

func scopedCategory(c Construct, slot int) Category {
	return firstScoped + Category(int(c)*numSlots+slot)
}

// Key returns the output field name of a category.
func (c Category) Key() string {
	if c < 0 || int(c) >= numCategories {
		return ""
	}
	return categoryKeys[c]
}

// Keys returns every counter field name in output order, ending with the
// overflow field.
func Keys() []string {
	keys := make([]string, 0, numCategories+1)
	keys = append(keys, categoryKeys[:]...)
	return append(keys, OthersKey)
}

// Lookup resolves a counter field name.
func Lookup(key string) (Category, bool) {
	c, ok := categoryIndex[key]
	return c, ok
}

// NodeCategory resolves an abstract-grammar node name (e.g. "functiondef").
func NodeCategory(node string) (Category, bool) {
	c, ok := nodeIndex[node]
	return c, ok
}

func IsStatement(c Category) bool {
	return c >= 0 && int(c) < numCategories && isStatement[c]
}

func IsExpression(c Category) bool {
	return c >= 0 && int(c) < numCategories && isExpression[c]
}
