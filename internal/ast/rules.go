package ast

// Rule label vocabulary for the SystemRDL grammar's parse tree: the closed
// set of rule_name values a Tree node can carry, shared between the parser
// that builds a tree and the core packages that walk one.
const (
	RuleRoot = "root"

	// Type declarations and instances.
	RuleComponentNamedDef      = "component_named_def"
	RuleComponentAnonDef       = "component_anon_def"
	RuleComponentBody          = "component_body"
	RuleComponentInst          = "component_inst"
	RuleExplicitComponentInst  = "explicit_component_inst"
	RuleComponentTypeRef       = "component_type_ref"
	RuleInstanceDecl           = "instance_decl"

	// Parameters.
	RuleParamDeclList  = "param_decl_list"
	RuleParamDecl      = "param_decl"
	RuleActualParamList = "actual_param_list"
	RuleActualParam    = "actual_param"

	// Array / address suffixes.
	RuleArraySuffix    = "array_suffix"
	RuleInstAddrFixed  = "inst_addr_fixed"
	RuleInstAddrStride = "inst_addr_stride"
	RuleInstAddrAlign  = "inst_addr_align"

	// Field bit-range suffix: name[msb:lsb] or name[width].
	RuleRangeSuffix = "range_suffix"

	// Property assignment forms.
	RuleLocalPropertyAssignment   = "local_property_assignment"
	RuleDynamicPropertyAssignment = "dynamic_property_assignment"
	RuleDefaultPropertyAssignment = "default_property_assignment"
	RulePropertyRef               = "property_ref"
	RuleInstanceRef                = "instance_ref"

	// Enum / struct definitions.
	RuleEnumDef    = "enum_def"
	RuleEnumerator = "enumerator"
	RuleStructDef  = "struct_def"
	RuleStructField = "struct_field"

	// Expressions.
	RuleExprLiteralInt    = "expr_literal_int"
	RuleExprLiteralString = "expr_literal_string"
	RuleExprLiteralBool   = "expr_literal_bool"
	RuleExprIdentifier    = "expr_identifier"
	RuleExprBinary        = "expr_binary"
	RuleExprUnary         = "expr_unary"
	RuleExprTernary       = "expr_ternary"
	RuleExprConcat        = "expr_concat"
	RuleExprReplicate     = "expr_replicate"
	RuleExprEnumRef       = "expr_enum_ref"
	RuleExprThis          = "expr_this"
	RuleExprParent        = "expr_parent"
	RuleExprParen         = "expr_paren"

	// Common field names used via FieldName.
	FieldName_    = "name"
	FieldType     = "type"
	FieldKind     = "kind"
	FieldValue    = "value"
	FieldOp       = "op"
	FieldLHS      = "lhs"
	FieldRHS      = "rhs"
	FieldOperand  = "operand"
	FieldCond     = "cond"
	FieldThen     = "then"
	FieldElse     = "else"
	FieldTarget   = "target"
	FieldOffset   = "offset"
	FieldStride   = "stride"
	FieldAlign    = "align"
	FieldMSB      = "msb"
	FieldLSB      = "lsb"
	FieldWidth    = "width"
	FieldBase     = "base"
	FieldIndex    = "index"
)
