package types

// NodeType identifies the type of an AST node.
type NodeType string

// AST node types.
const (
	// Literals
	NodeLiteral NodeType = "literal" // string, number, true, false, null

	// Navigation
	NodeName     NodeType = "name"     // identifier, $root, $data, $index
	NodeProperty NodeType = "property" // base.key
	NodeIndex    NodeType = "index"    // base[expr]

	// Operators
	NodeBinary NodeType = "binary" // ==, <, +, ...
	NodeUnary  NodeType = "unary"  // !, -
	NodeAnd    NodeType = "and"    // &&
	NodeOr     NodeType = "or"     // ||

	// Functions
	NodeFunction NodeType = "function" // name(args...)

	// Control flow
	NodeCondition NodeType = "condition" // cond ? a : b
)

// Reserved names resolved by the context stack rather than by lookup in
// the data.
const (
	NameRoot  = "$root"
	NameData  = "$data"
	NameIndex = "$index"
)

// ASTNode represents a node in the Abstract Syntax Tree.
type ASTNode struct {
	Type     NodeType
	Literal  Value  // Set for NodeLiteral
	StrValue string // Name, property key, operator or function name
	Position int

	// Relations
	LHS       *ASTNode   // Base of property/index access, left operand, condition
	RHS       *ASTNode   // Index expression, right operand, then-branch
	Else      *ASTNode   // Else-branch of NodeCondition
	Arguments []*ASTNode // Function arguments
}

// NewASTNode creates a new AST node of the specified type.
// Prefer NodeArena.Alloc when parsing to reduce per-node heap allocations.
func NewASTNode(nodeType NodeType, position int) *ASTNode {
	return &ASTNode{
		Type:     nodeType,
		Position: position,
	}
}

// arenaChunkSize is the number of ASTNode values pre-allocated per arena chunk.
// Most binding expressions fit in a single chunk.
const arenaChunkSize = 32

// NodeArena is a bump-pointer allocator for ASTNode values.
//
// Instead of allocating each node individually on the heap, the arena
// pre-allocates fixed-size chunks of ASTNode structs and returns pointers
// into them.
//
// # Lifetime
//
// The arena MUST stay alive as long as any pointer returned by Alloc is
// reachable. Nodes point into the chunks, so the GC keeps the arena alive
// for as long as the [Expression] holding the root is referenced, including
// while it sits in the expression cache.
//
// # Thread safety
//
// NodeArena is NOT thread-safe. Each parser owns its own arena and the
// arena is never shared across goroutines.
type NodeArena struct {
	chunks [][]ASTNode
	pos    int // next free index in the last chunk
}

// NewNodeArena allocates an arena pre-warmed with one initial chunk.
func NewNodeArena() *NodeArena {
	return &NodeArena{
		chunks: [][]ASTNode{make([]ASTNode, arenaChunkSize)},
	}
}

// Alloc returns a pointer to a zero-valued ASTNode inside the arena,
// with Type and Position set.
func (a *NodeArena) Alloc(nodeType NodeType, position int) *ASTNode {
	if a.pos >= arenaChunkSize {
		a.chunks = append(a.chunks, make([]ASTNode, arenaChunkSize))
		a.pos = 0
	}
	n := &a.chunks[len(a.chunks)-1][a.pos]
	a.pos++
	n.Type = nodeType
	n.Position = position
	return n
}

// String returns a string representation of the node type.
func (n *ASTNode) String() string {
	return string(n.Type)
}
