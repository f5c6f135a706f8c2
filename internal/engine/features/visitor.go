package features

import (
	"regexp"
	"strings"

	sitter "github.com/tree-sitter/go-tree-sitter"
)

type exprCtx int

const (
	ctxLoad exprCtx = iota
	ctxStore
	ctxDel
)

var (
	ctxNodes = [...]string{ctxLoad: "load", ctxStore: "store", ctxDel: "del"}
	ctxUsage = [...]string{ctxLoad: UsageLoad, ctxStore: UsageStore, ctxDel: UsageDelete}
)

var binaryOps = map[string]string{
	"+": "add", "-": "sub", "*": "mult", "@": "matmult", "/": "div",
	"%": "mod", "**": "pow", "<<": "lshift", ">>": "rshift",
	"|": "bitor", "^": "bitxor", "&": "bitand", "//": "floordiv",
}

var unaryOps = map[string]string{"+": "uadd", "-": "usub", "~": "invert"}

var compareOps = map[string]string{
	"<": "lt", "<=": "lte", "==": "eq", "!=": "noteq", "<>": "noteq",
	">=": "gte", ">": "gt", "in": "in", "not in": "notin",
	"is": "is", "is not": "isnot",
}

var comprehensionNodes = map[string]string{
	"list_comprehension":       "listcomp",
	"set_comprehension":        "setcomp",
	"dictionary_comprehension": "dictcomp",
	"generator_expression":     "generatorexp",
}

// Grammar nodes outside the vocabulary, reported under their abstract name.
var patternNodes = map[string]string{
	"class_pattern":   "matchclass",
	"splat_pattern":   "matchstar",
	"union_pattern":   "matchor",
	"dict_pattern":    "matchmapping",
	"complex_pattern": "matchvalue",
}

// Syntax-only nodes: visited for their children, never counted.
var transparentNodes = map[string]bool{
	"block":                    true,
	"else_clause":              true,
	"finally_clause":           true,
	"decorator":                true,
	"parenthesized_expression": true,
	"type":                     true,
	"pair":                     true,
	"if_clause":                true,
	"with_clause":              true,
	"chevron":                  true,
	"parenthesized_list_splat": true,
	"dictionary_splat":         true,
	"dictionary_splat_pattern": true,
	"case_pattern":             true,
	"keyword_pattern":          true,
	"as_pattern":               true,
	"type_parameter":           true,
	"constrained_type":         true,
	"argument_list":            true,
	"dotted_name":              true,
}

var (
	underscoreNumRE   = regexp.MustCompile(`^_(i)?\d*$`)
	manyUnderscoresRE = regexp.MustCompile(`^_{1,3}$`)
	manyIsRE          = regexp.MustCompile(`^_i{1,3}$`)
)

type visitor struct {
	src      []byte
	checker  LocalityChecker
	counters *Counters
	names    *NameTable
	modules  []ModuleReference
	shell    []ShellFeature
	frame    frame
}

func newVisitor(src []byte, checker LocalityChecker) *visitor {
	return &visitor{
		src:      src,
		checker:  checker,
		counters: NewCounters(),
		names:    NewNameTable(),
		modules:  []ModuleReference{},
		shell:    []ShellFeature{},
		frame:    newFrame(""),
	}
}

// node applies the generic rule: one count for the node's own category (or
// the overflow) plus the statement/expression tally.
func (v *visitor) node(name string) {
	cat, ok := nodeIndex[name]
	if !ok {
		v.counters.overflow("ast_" + name)
		return
	}
	v.counters.inc(cat)
	if isStatement[cat] {
		v.counters.inc(Statements)
	}
	if isExpression[cat] {
		v.counters.inc(Expressions)
	}
}

func (v *visitor) visit(n *sitter.Node, ctx exprCtx) {
	if n == nil || !n.IsNamed() || n.IsExtra() {
		return
	}
	kind := n.Kind()
	switch kind {
	case "module":
		v.node("module")
		v.visitChildren(n, ctxLoad)

	// statements
	case "expression_statement":
		v.visitExpressionStatement(n)
	case "function_definition":
		v.visitFunction(n, nil)
	case "class_definition":
		v.visitClass(n, nil)
	case "decorated_definition":
		v.visitDecorated(n)
	case "delete_statement":
		v.visitDelete(n)
	case "for_statement":
		v.visitFor(n)
	case "import_statement":
		v.visitImport(n)
	case "import_from_statement", "future_import_statement":
		v.visitImportFrom(n)
	case "global_statement":
		v.node("global")
		for _, id := range namedChildren(n) {
			v.frame.globals[v.text(id)] = struct{}{}
		}
	case "nonlocal_statement":
		v.node("nonlocal")
		for _, id := range namedChildren(n) {
			v.frame.nonlocals[v.text(id)] = struct{}{}
		}
	case "if_statement", "elif_clause":
		v.node("if")
		v.visitChildren(n, ctxLoad)
	case "with_statement":
		if hasToken(n, "async") {
			v.node("asyncwith")
		} else {
			v.node("with")
		}
		v.visitChildren(n, ctxLoad)
	case "with_item":
		v.visitWithItem(n)
	case "try_statement":
		if isTryStar(n) {
			v.node("trystar")
		} else {
			v.node("try")
		}
		v.visitChildren(n, ctxLoad)
	case "except_clause", "except_group_clause":
		v.visitExcept(n)
	case "return_statement":
		v.simpleStatement(n, "return")
	case "while_statement":
		v.simpleStatement(n, "while")
	case "raise_statement":
		v.simpleStatement(n, "raise")
	case "assert_statement":
		v.simpleStatement(n, "assert")
	case "pass_statement":
		v.node("pass")
	case "break_statement":
		v.node("break")
	case "continue_statement":
		v.node("continue")
	case "print_statement":
		v.simpleStatement(n, "print")
	case "exec_statement":
		v.simpleStatement(n, "exec")
	case "match_statement":
		v.simpleStatement(n, "match")
	case "case_clause":
		v.simpleStatement(n, "match_case")
	case "type_alias_statement":
		v.simpleStatement(n, "typealias")

	// expressions
	case "identifier", "keyword_identifier":
		v.visitName(n, v.text(n), ctx)
	case "integer", "float", "true", "false", "none", "ellipsis":
		v.node("constant")
	case "string":
		v.visitString(n)
	case "concatenated_string":
		v.visitConcatenated(n)
	case "attribute", "member_type":
		v.node("attribute")
		v.visit(n.ChildByFieldName("object"), ctxLoad)
		if kind == "member_type" {
			v.visitChildren(n, ctxLoad)
		}
		v.node(ctxNodes[ctx])
	case "subscript":
		v.visitSubscript(n, ctx)
	case "generic_type":
		v.node("subscript")
		v.visitChildren(n, ctxLoad)
		v.node(ctxNodes[ctxLoad])
	case "slice":
		v.node("slice")
		v.visitChildren(n, ctxLoad)
	case "call":
		v.visitCall(n)
	case "keyword_argument":
		v.node("keyword")
		v.visit(n.ChildByFieldName("value"), ctxLoad)
	case "list_splat", "list_splat_pattern", "splat_type":
		v.node("starred")
		v.visitChildren(n, ctx)
		v.node(ctxNodes[ctx])
	case "binary_operator":
		v.node("binop")
		v.visit(n.ChildByFieldName("left"), ctxLoad)
		if op := n.ChildByFieldName("operator"); op != nil {
			v.node(binaryOps[op.Kind()])
		}
		v.visit(n.ChildByFieldName("right"), ctxLoad)
	case "union_type":
		v.node("binop")
		v.node("bitor")
		v.visitChildren(n, ctxLoad)
	case "unary_operator":
		v.node("unaryop")
		if op := n.ChildByFieldName("operator"); op != nil {
			v.node(unaryOps[op.Kind()])
		}
		v.visit(n.ChildByFieldName("argument"), ctxLoad)
	case "not_operator":
		v.node("unaryop")
		v.node("not")
		v.visit(n.ChildByFieldName("argument"), ctxLoad)
	case "boolean_operator":
		v.visitBoolean(n)
	case "comparison_operator":
		v.visitCompare(n)
	case "lambda":
		v.visitLambda(n)
	case "conditional_expression":
		v.node("ifexp")
		v.visitChildren(n, ctxLoad)
	case "named_expression":
		v.node("namedexpr")
		v.visit(n.ChildByFieldName("name"), ctxStore)
		v.visit(n.ChildByFieldName("value"), ctxLoad)
	case "dictionary":
		v.node("dict")
		v.visitChildren(n, ctxLoad)
	case "set":
		v.node("set")
		v.visitChildren(n, ctxLoad)
	case "list", "list_pattern":
		v.node("list")
		v.visitChildren(n, ctx)
		v.node(ctxNodes[ctx])
	case "tuple", "tuple_pattern", "pattern_list", "expression_list":
		v.node("tuple")
		v.visitChildren(n, ctx)
		v.node(ctxNodes[ctx])
	case "list_comprehension", "set_comprehension", "dictionary_comprehension", "generator_expression":
		v.node(comprehensionNodes[kind])
		v.visitChildren(n, ctxLoad)
	case "for_in_clause":
		v.node("comprehension")
		left := n.ChildByFieldName("left")
		v.visit(left, ctxStore)
		for _, child := range namedChildren(n) {
			if !sameNode(child, left) {
				v.visit(child, ctxLoad)
			}
		}
	case "await":
		v.node("await")
		v.visitChildren(n, ctxLoad)
	case "yield":
		if hasToken(n, "from") {
			v.node("yieldfrom")
		} else {
			v.node("yield")
		}
		v.visitChildren(n, ctxLoad)
	case "as_pattern_target":
		if n.NamedChildCount() == 0 {
			v.visitName(n, v.text(n), ctxStore)
		} else {
			v.visitChildren(n, ctxStore)
		}

	default:
		if transparentNodes[kind] {
			v.visitChildren(n, ctx)
			return
		}
		if name, ok := patternNodes[kind]; ok {
			kind = name
		}
		v.node(kind)
		v.visitChildren(n, ctx)
	}
}

func (v *visitor) visitChildren(n *sitter.Node, ctx exprCtx) {
	for _, child := range namedChildren(n) {
		v.visit(child, ctx)
	}
}

func (v *visitor) simpleStatement(n *sitter.Node, name string) {
	v.node(name)
	v.visitChildren(n, ctxLoad)
}

func (v *visitor) visitExpressionStatement(n *sitter.Node) {
	children := namedChildren(n)
	if len(children) == 1 {
		switch children[0].Kind() {
		case "assignment":
			v.visitAssignment(children[0])
			return
		case "augmented_assignment":
			v.visitAugmentedAssignment(children[0])
			return
		}
	}
	v.node("expr")
	if len(children) > 1 || hasToken(n, ",") {
		v.node("tuple")
		v.visitChildren(n, ctxLoad)
		v.node(ctxNodes[ctxLoad])
		return
	}
	v.visitChildren(n, ctxLoad)
}

func (v *visitor) visitAssignment(n *sitter.Node) {
	if annotation := n.ChildByFieldName("type"); annotation != nil {
		target := n.ChildByFieldName("left")
		v.countTargets([]*sitter.Node{target}, ConstructAssign, AssignName, AssignAttr, AssignItem)
		v.node("annassign")
		v.visit(target, ctxStore)
		v.visit(annotation, ctxLoad)
		v.visit(n.ChildByFieldName("right"), ctxLoad)
		return
	}

	// a = b = value is a single assignment with two targets.
	var targets []*sitter.Node
	var value *sitter.Node
	for cur := n; ; {
		targets = append(targets, cur.ChildByFieldName("left"))
		right := cur.ChildByFieldName("right")
		if right != nil && right.Kind() == "assignment" && right.ChildByFieldName("type") == nil {
			cur = right
			continue
		}
		value = right
		break
	}

	v.countTargets(targets, ConstructAssign, AssignName, AssignAttr, AssignItem)
	v.node("assign")
	for _, target := range targets {
		v.visit(target, ctxStore)
	}
	v.visit(value, ctxLoad)
}

func (v *visitor) visitAugmentedAssignment(n *sitter.Node) {
	target := n.ChildByFieldName("left")
	v.countTargets([]*sitter.Node{target}, ConstructAssign, AssignName, AssignAttr, AssignItem)
	v.node("augassign")
	v.visit(target, ctxStore)
	if op := n.ChildByFieldName("operator"); op != nil {
		v.node(binaryOps[strings.TrimSuffix(op.Kind(), "=")])
	}
	v.visit(n.ChildByFieldName("right"), ctxLoad)
}

func (v *visitor) visitDelete(n *sitter.Node) {
	targets := namedChildren(n)
	if len(targets) == 1 && targets[0].Kind() == "expression_list" {
		targets = namedChildren(targets[0])
	}
	v.countTargets(targets, ConstructDelete, DelName, DelAttr, DelItem)
	v.node("delete")
	for _, target := range targets {
		v.visit(target, ctxDel)
	}
}

func (v *visitor) visitFor(n *sitter.Node) {
	target := n.ChildByFieldName("left")
	v.countTargets([]*sitter.Node{target}, ConstructAssign, AssignName, AssignAttr, AssignItem)
	if hasToken(n, "async") {
		v.node("asyncfor")
	} else {
		v.node("for")
	}
	v.visit(target, ctxStore)
	for _, child := range namedChildren(n) {
		if !sameNode(child, target) {
			v.visit(child, ctxLoad)
		}
	}
}

// countTargets decomposes unpacking targets into simple names, attributes
// and subscripts. Starred targets are not decomposed.
func (v *visitor) countTargets(targets []*sitter.Node, c Construct, name, attr, item Category) {
	for _, target := range targets {
		target = unwrapParens(target)
		if target == nil {
			continue
		}
		switch target.Kind() {
		case "identifier", "keyword_identifier":
			v.counters.inc(name)
			v.count(c, v.text(target))
		case "attribute":
			v.counters.inc(attr)
			v.count(c, "")
		case "subscript":
			v.counters.inc(item)
			v.count(c, "")
		case "pattern_list", "tuple_pattern", "list_pattern", "tuple", "list", "expression_list":
			v.countTargets(namedChildren(target), c, name, attr, item)
		}
	}
}

func (v *visitor) visitDecorated(n *sitter.Node) {
	var decorators []*sitter.Node
	for _, child := range namedChildren(n) {
		if child.Kind() == "decorator" {
			decorators = append(decorators, child)
		}
	}
	definition := n.ChildByFieldName("definition")
	if definition == nil {
		return
	}
	switch definition.Kind() {
	case "function_definition":
		v.visitFunction(definition, decorators)
	case "class_definition":
		v.visitClass(definition, decorators)
	default:
		v.visit(definition, ctxLoad)
	}
}

func (v *visitor) visitFunction(n *sitter.Node, decorators []*sitter.Node) {
	name := v.text(n.ChildByFieldName("name"))
	v.countName(name, UsageFunction)
	if hasToken(n, "async") {
		v.node("asyncfunctiondef")
	} else {
		v.node("functiondef")
	}
	v.count(ConstructFunctionDef, name)

	params := n.ChildByFieldName("parameters")
	restore := v.enter(ScopeLocal)
	v.recordParameters(params)
	v.visit(n.ChildByFieldName("body"), ctxLoad)
	restore()

	if len(decorators) > 0 {
		v.counters.inc(FunctionsWithDecorators)
	}
	v.visitParameters(params)
	for _, decorator := range decorators {
		v.visit(decorator, ctxLoad)
	}
	v.visit(n.ChildByFieldName("return_type"), ctxLoad)
}

func (v *visitor) visitClass(n *sitter.Node, decorators []*sitter.Node) {
	name := v.text(n.ChildByFieldName("name"))
	v.countName(name, UsageClass)
	v.node("classdef")
	v.count(ConstructClassDef, name)

	restore := v.enter(ScopeClass)
	v.visit(n.ChildByFieldName("body"), ctxLoad)
	restore()

	if len(decorators) > 0 {
		v.counters.inc(ClassesWithDecorators)
	}

	var args []*sitter.Node
	if supers := n.ChildByFieldName("superclasses"); supers != nil {
		args = namedChildren(supers)
	}
	for _, arg := range args {
		if arg.Kind() == "keyword_argument" || arg.Kind() == "dictionary_splat" {
			continue
		}
		base := unwrapParens(arg)
		if base.Kind() != "identifier" || v.text(base) != "object" {
			v.counters.inc(ClassesWithBases)
			break
		}
	}
	for _, arg := range args {
		if arg.Kind() == "dictionary_splat" {
			v.node("keyword")
		}
		v.visit(arg, ctxLoad)
	}
	for _, decorator := range decorators {
		v.visit(decorator, ctxLoad)
	}
}

func (v *visitor) visitLambda(n *sitter.Node) {
	v.node("lambda")
	params := n.ChildByFieldName("parameters")
	v.recordParameters(params)
	v.visitParameters(params)
	v.visit(n.ChildByFieldName("body"), ctxLoad)
}

// recordParameters adds parameter names to the name table. Parameters always
// belong to the local scope of the function they declare.
func (v *visitor) recordParameters(params *sitter.Node) {
	if params == nil {
		return
	}
	for _, param := range namedChildren(params) {
		if name := v.parameterName(param); name != "" {
			v.names.Add(ScopeLocal, UsageParameter, name, 1)
		}
	}
}

func (v *visitor) parameterName(param *sitter.Node) string {
	switch param.Kind() {
	case "identifier":
		return v.text(param)
	case "list_splat_pattern", "dictionary_splat_pattern":
		if inner := firstNamedChild(param); inner != nil {
			return v.text(inner)
		}
	case "typed_parameter":
		if inner := firstNamedChild(param); inner != nil {
			return v.parameterName(inner)
		}
	case "default_parameter", "typed_default_parameter":
		if name := param.ChildByFieldName("name"); name != nil && name.Kind() == "identifier" {
			return v.text(name)
		}
	}
	return ""
}

// visitParameters counts the arguments node, one arg per declared parameter,
// and visits annotations and defaults in the current scope.
func (v *visitor) visitParameters(params *sitter.Node) {
	v.node("arguments")
	if params == nil {
		return
	}
	for _, param := range namedChildren(params) {
		switch param.Kind() {
		case "identifier", "list_splat_pattern", "dictionary_splat_pattern":
			v.node("arg")
		case "typed_parameter":
			v.node("arg")
			v.visit(param.ChildByFieldName("type"), ctxLoad)
		case "default_parameter":
			v.node("arg")
			v.visit(param.ChildByFieldName("value"), ctxLoad)
		case "typed_default_parameter":
			v.node("arg")
			v.visit(param.ChildByFieldName("type"), ctxLoad)
			v.visit(param.ChildByFieldName("value"), ctxLoad)
		}
	}
}

func (v *visitor) visitWithItem(n *sitter.Node) {
	v.node("withitem")
	value := n.ChildByFieldName("value")
	if value == nil {
		value = firstNamedChild(n)
	}
	if value != nil && value.Kind() == "as_pattern" {
		parts := namedChildren(value)
		if len(parts) > 0 {
			v.visit(parts[0], ctxLoad)
		}
		for _, target := range parts[1:] {
			v.visit(target, ctxStore)
		}
		return
	}
	v.visit(value, ctxLoad)
}

// visitExcept skips the bound exception name, which is not an expression.
func (v *visitor) visitExcept(n *sitter.Node) {
	v.node("excepthandler")
	afterAs := false
	for i := uint(0); i < n.ChildCount(); i++ {
		child := n.Child(i)
		if child == nil || child.IsExtra() {
			continue
		}
		if !child.IsNamed() {
			if k := child.Kind(); k == "as" || k == "," {
				afterAs = true
			}
			continue
		}
		switch {
		case child.Kind() == "block":
			v.visit(child, ctxLoad)
		case child.Kind() == "as_pattern":
			if first := firstNamedChild(child); first != nil {
				v.visit(first, ctxLoad)
			}
		case afterAs:
		default:
			v.visit(child, ctxLoad)
		}
	}
}

func (v *visitor) visitImport(n *sitter.Node) {
	line := lineOf(n)
	items := namedChildren(n)
	for _, item := range items {
		name, _ := v.importAlias(item)
		v.newModule(line, ImportKindImport, name)
	}
	for _, item := range items {
		name, alias := v.importAlias(item)
		if alias != "" {
			name = alias
		}
		v.countName(name, UsageImport)
		v.count(ConstructImport, name)
	}
	v.node("import")
	for range items {
		v.node("alias")
	}
}

func (v *visitor) visitImportFrom(n *sitter.Node) {
	items := namedChildren(n)
	module := "__future__"
	if n.Kind() == "import_from_statement" {
		if len(items) == 0 {
			return
		}
		module = v.importModule(items[0])
		items = items[1:]
	}
	v.newModule(lineOf(n), ImportKindImportFrom, module)
	for _, item := range items {
		name := "*"
		if item.Kind() != "wildcard_import" {
			var alias string
			name, alias = v.importAlias(item)
			if alias != "" {
				name = alias
			}
		}
		v.countName(name, UsageImportFrom)
		if name == "*" {
			v.counters.inc(ImportStar)
		}
		v.count(ConstructImportFrom, name)
	}
	v.node("importfrom")
	for range items {
		v.node("alias")
	}
}

func (v *visitor) importAlias(item *sitter.Node) (name, alias string) {
	if item.Kind() == "aliased_import" {
		if a := item.ChildByFieldName("alias"); a != nil {
			alias = v.text(a)
		}
		return v.dotted(item.ChildByFieldName("name")), alias
	}
	return v.dotted(item), ""
}

func (v *visitor) importModule(n *sitter.Node) string {
	if n.Kind() != "relative_import" {
		return v.dotted(n)
	}
	var b strings.Builder
	for _, child := range namedChildren(n) {
		switch child.Kind() {
		case "import_prefix":
			b.WriteString(strings.Join(strings.Fields(v.text(child)), ""))
		default:
			b.WriteString(v.dotted(child))
		}
	}
	return b.String()
}

func (v *visitor) dotted(n *sitter.Node) string {
	if n == nil {
		return ""
	}
	if n.Kind() != "dotted_name" {
		return v.text(n)
	}
	parts := make([]string, 0, n.NamedChildCount())
	for _, part := range namedChildren(n) {
		parts = append(parts, v.text(part))
	}
	return strings.Join(parts, ".")
}

func (v *visitor) newModule(line int, kind, name string) {
	ref := ModuleReference{Line: line, ImportType: kind, Name: name}
	if v.checker != nil {
		ref.Local = v.checker.IsLocal(name)
		ref.LocalPossibility = v.checker.LocalityScore(name)
	}
	v.modules = append(v.modules, ref)
}

func (v *visitor) visitCall(n *sitter.Node) {
	v.node("call")
	if v.shellCall(n) {
		return
	}
	v.visit(n.ChildByFieldName("function"), ctxLoad)
	args := n.ChildByFieldName("arguments")
	if args == nil {
		return
	}
	if args.Kind() != "argument_list" {
		v.visit(args, ctxLoad)
		return
	}
	for _, arg := range namedChildren(args) {
		if arg.Kind() == "dictionary_splat" {
			v.node("keyword")
		}
		v.visit(arg, ctxLoad)
	}
}

// shellCall matches get_ipython().<method>("<text>", ...) and records it as
// a shell feature. Matched calls are not descended into.
func (v *visitor) shellCall(n *sitter.Node) bool {
	fn := n.ChildByFieldName("function")
	if fn == nil || fn.Kind() != "attribute" {
		return false
	}
	receiver := fn.ChildByFieldName("object")
	if receiver == nil || receiver.Kind() != "call" {
		return false
	}
	callee := receiver.ChildByFieldName("function")
	if callee == nil || callee.Kind() != "identifier" || v.text(callee) != "get_ipython" {
		return false
	}
	if recvArgs := receiver.ChildByFieldName("arguments"); recvArgs == nil || len(namedChildren(recvArgs)) > 0 {
		return false
	}
	positional := positionalArgs(n.ChildByFieldName("arguments"))
	if len(positional) == 0 {
		return false
	}
	text, ok := v.stringValue(positional[0])
	if !ok || text == "" {
		return false
	}

	v.counters.inc(IPythonSuperset)
	method := v.text(fn.ChildByFieldName("attribute"))
	fields := strings.Fields(text)
	token := ""
	if len(fields) > 0 {
		token = fields[0]
	}
	v.shell = append(v.shell, ShellFeature{Line: lineOf(n), Column: columnOf(n), Name: method, Value: token})

	var module string
	switch {
	case token == "load_ext":
		if len(fields) > 1 {
			module = fields[1]
		} else if len(positional) > 1 {
			module, _ = v.stringValue(positional[1])
		}
	case method == "load_ext":
		module = token
	}
	if module != "" {
		v.newModule(lineOf(n), ImportKindLoadExt, module)
	}
	return true
}

func positionalArgs(args *sitter.Node) []*sitter.Node {
	if args == nil || args.Kind() != "argument_list" {
		return nil
	}
	var out []*sitter.Node
	for _, arg := range namedChildren(args) {
		if arg.Kind() == "keyword_argument" || arg.Kind() == "dictionary_splat" {
			break
		}
		out = append(out, arg)
	}
	return out
}

// stringValue decodes a plain (non-bytes, non-formatted) string literal.
func (v *visitor) stringValue(n *sitter.Node) (string, bool) {
	n = unwrapParens(n)
	if n == nil {
		return "", false
	}
	var parts []*sitter.Node
	switch n.Kind() {
	case "string":
		parts = []*sitter.Node{n}
	case "concatenated_string":
		parts = namedChildren(n)
	default:
		return "", false
	}
	var b strings.Builder
	for _, part := range parts {
		kind, value, ok := parseLiteral(v.text(part))
		if !ok || kind != literalStr {
			return "", false
		}
		b.WriteString(value)
	}
	return b.String(), true
}

func (v *visitor) visitSubscript(n *sitter.Node, ctx exprCtx) {
	v.node("subscript")
	value := n.ChildByFieldName("value")
	v.visit(value, ctxLoad)

	var index []*sitter.Node
	for _, child := range namedChildren(n) {
		if !sameNode(child, value) {
			index = append(index, child)
		}
	}
	if len(index) > 1 || hasToken(n, ",") {
		v.node("tuple")
		for _, child := range index {
			v.visit(child, ctxLoad)
		}
		v.node(ctxNodes[ctxLoad])
	} else {
		for _, child := range index {
			v.visit(child, ctxLoad)
		}
	}
	v.node(ctxNodes[ctx])

	if value == nil || value.Kind() != "identifier" {
		return
	}
	var feature string
	switch name := v.text(value); name {
	case "In", "_ih":
		feature = FeatureInputRef
	case "Out", "_oh":
		feature = FeatureOutputRef
	default:
		return
	}
	v.counters.inc(IPython)
	v.shell = append(v.shell, ShellFeature{
		Line: lineOf(n), Column: columnOf(n), Name: feature, Value: v.text(value) + "[]",
	})
}

func (v *visitor) visitName(n *sitter.Node, name string, ctx exprCtx) {
	v.countName(name, ctxUsage[ctx])
	v.node("name")
	v.node(ctxNodes[ctx])
	if feature := nameFeature(name); feature != "" {
		v.counters.inc(IPython)
		v.shell = append(v.shell, ShellFeature{Line: lineOf(n), Column: columnOf(n), Name: feature, Value: name})
	}
}

// nameFeature classifies history back-references such as _, __, _i2 and _sh.
func nameFeature(name string) string {
	if m := underscoreNumRE.FindStringSubmatch(name); m != nil {
		if m[1] != "" {
			return FeatureInputRef
		}
		return FeatureOutputRef
	}
	switch {
	case manyUnderscoresRE.MatchString(name):
		return FeatureOutputRef
	case manyIsRE.MatchString(name):
		return FeatureInputRef
	case name == "_sh":
		return FeatureShadowRef
	}
	return ""
}

func (v *visitor) visitBoolean(n *sitter.Node) {
	op := n.ChildByFieldName("operator")
	if op == nil {
		v.visitChildren(n, ctxLoad)
		return
	}
	v.node("boolop")
	v.node(op.Kind())
	for _, operand := range boolOperands(n, op.Kind()) {
		v.visit(operand, ctxLoad)
	}
}

// boolOperands flattens left-nested chains of the same operator, matching
// a or b or c as one operation with three values.
func boolOperands(n *sitter.Node, op string) []*sitter.Node {
	left := n.ChildByFieldName("left")
	var out []*sitter.Node
	if left != nil && left.Kind() == "boolean_operator" {
		if inner := left.ChildByFieldName("operator"); inner != nil && inner.Kind() == op {
			out = boolOperands(left, op)
		} else {
			out = append(out, left)
		}
	} else {
		out = append(out, left)
	}
	return append(out, n.ChildByFieldName("right"))
}

func (v *visitor) visitCompare(n *sitter.Node) {
	v.node("compare")
	count := n.ChildCount()
	for i := uint(0); i < count; i++ {
		child := n.Child(i)
		if child == nil || child.IsExtra() {
			continue
		}
		if child.IsNamed() {
			v.visit(child, ctxLoad)
			continue
		}
		op := child.Kind()
		if i+1 < count {
			if next := n.Child(i + 1); next != nil && !next.IsNamed() {
				if pair := op + " " + next.Kind(); pair == "not in" || pair == "is not" {
					op = pair
					i++
				}
			}
		}
		if name, ok := compareOps[op]; ok {
			v.node(name)
		}
	}
}

func (v *visitor) visitString(n *sitter.Node) {
	kind, _, _ := parseLiteral(v.text(n))
	if kind != literalFormat {
		v.node("constant")
		return
	}
	v.node("joinedstr")
	literal := false
	v.visitFormatParts(n, &literal)
}

// visitConcatenated treats adjacent literals as one value, formatted when
// any part is formatted.
func (v *visitor) visitConcatenated(n *sitter.Node) {
	parts := namedChildren(n)
	formatted := false
	for _, part := range parts {
		if kind, _, _ := parseLiteral(v.text(part)); kind == literalFormat {
			formatted = true
			break
		}
	}
	if !formatted {
		v.node("constant")
		return
	}
	v.node("joinedstr")
	literal := false
	for _, part := range parts {
		if kind, _, _ := parseLiteral(v.text(part)); kind == literalFormat {
			v.visitFormatParts(part, &literal)
			continue
		}
		if !literal {
			v.node("constant")
			literal = true
		}
	}
}

// visitFormatParts counts one constant per literal run and one formatted
// value per replacement field. The grammar keeps the literal text of a
// format specifier out of the tree, so it shows up as gaps between children.
func (v *visitor) visitFormatParts(n *sitter.Node, literal *bool) {
	spec := n.Kind() == "format_specifier"
	pos := n.StartByte()
	for i := uint(0); i < n.ChildCount(); i++ {
		child := n.Child(i)
		if child == nil || child.IsExtra() {
			continue
		}
		if spec && child.StartByte() > pos && !*literal {
			v.node("constant")
			*literal = true
		}
		pos = child.EndByte()
		switch child.Kind() {
		case "string_start", "string_end", ":":
			continue
		case "interpolation", "format_expression":
			*literal = false
			v.node("formattedvalue")
			expr := child.ChildByFieldName("expression")
			if expr == nil {
				expr = firstNamedChild(child)
			}
			v.visit(expr, ctxLoad)
			if spec := child.ChildByFieldName("format_specifier"); spec != nil {
				v.node("joinedstr")
				inner := false
				v.visitFormatParts(spec, &inner)
			}
		default:
			if !*literal {
				v.node("constant")
				*literal = true
			}
		}
	}
	if spec && n.EndByte() > pos && !*literal {
		v.node("constant")
	}
}

func (v *visitor) text(n *sitter.Node) string {
	if n == nil {
		return ""
	}
	return string(v.src[n.StartByte():n.EndByte()])
}

func namedChildren(n *sitter.Node) []*sitter.Node {
	if n == nil {
		return nil
	}
	count := n.NamedChildCount()
	out := make([]*sitter.Node, 0, count)
	for i := uint(0); i < count; i++ {
		child := n.NamedChild(i)
		if child == nil || child.IsExtra() {
			continue
		}
		out = append(out, child)
	}
	return out
}

func firstNamedChild(n *sitter.Node) *sitter.Node {
	children := namedChildren(n)
	if len(children) == 0 {
		return nil
	}
	return children[0]
}

func hasToken(n *sitter.Node, token string) bool {
	for i := uint(0); i < n.ChildCount(); i++ {
		if child := n.Child(i); child != nil && !child.IsNamed() && child.Kind() == token {
			return true
		}
	}
	return false
}

// isTryStar reports whether a try statement handles exception groups.
// Grammar versions differ on whether except* gets its own node.
func isTryStar(n *sitter.Node) bool {
	for _, child := range namedChildren(n) {
		switch child.Kind() {
		case "except_group_clause":
			return true
		case "except_clause":
			if hasToken(child, "*") || hasToken(child, "except*") {
				return true
			}
		}
	}
	return false
}

func unwrapParens(n *sitter.Node) *sitter.Node {
	for n != nil && n.Kind() == "parenthesized_expression" {
		inner := namedChildren(n)
		if len(inner) != 1 {
			return n
		}
		n = inner[0]
	}
	return n
}

func sameNode(a, b *sitter.Node) bool {
	if a == nil || b == nil {
		return false
	}
	return a.StartByte() == b.StartByte() && a.EndByte() == b.EndByte() && a.Kind() == b.Kind()
}

func lineOf(n *sitter.Node) int {
	return int(n.StartPosition().Row) + 1
}

func columnOf(n *sitter.Node) int {
	return int(n.StartPosition().Column)
}
