package formula

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/growthcurve/formula/dec"
)

// ============================================================
// JSON formula descriptions
//
// A formula is described as a tree of nodes:
//
//	{"var": true}
//	{"const": 5}
//	{"op": "add", "inputs": [{"var": true}, {"const": 3}]}
//
// Combinators (step, if) close over Go functions and have no JSON form.
// ============================================================

var (
	// ErrUnknownOperation reports a description naming an operation outside
	// the catalogue.
	ErrUnknownOperation = errors.New("formula: unknown operation")
	// ErrBadDescription reports a malformed JSON formula description.
	ErrBadDescription = errors.New("formula: invalid description")
	// ErrNotSerializable reports a MarshalJSON call on a formula holding
	// state with no JSON form (combinators, live cells as non-variable
	// inputs marshal by current value).
	ErrNotSerializable = errors.New("formula: not serializable")
)

type nodeJSON struct {
	Var    bool       `json:"var,omitempty"`
	Const  *float64   `json:"const,omitempty"`
	Op     string     `json:"op,omitempty"`
	Inputs []nodeJSON `json:"inputs,omitempty"`
}

// opByName is built in init (not a var initializer) so it runs after the
// init in ops.go has populated opTable.
var opByName map[string]Op

func init() {
	m := make(map[string]Op, opCount)
	for op := opAdd; op < opStep; op++ {
		m[opTable[op].name] = op
	}
	opByName = m
}

// opArity is the input count each catalogue operation expects.
func opArity(op Op) int {
	switch op {
	case opTetrate, opIteratedLog, opLayerAdd, opPentate, opClamp:
		return 3
	case opAdd, opSub, opMul, opDiv, opPow, opPowBase, opRoot, opLog,
		opIteratedExp, opSlog, opLayerAdd10,
		opMin, opMax, opMinAbs, opMaxAbs, opClampMin, opClampMax:
		return 2
	default:
		return 1
	}
}

// FromJSON builds a formula from a JSON description. Every {"var": true}
// node reads the same cell.
func FromJSON(data []byte, cell *Cell) (*Formula, error) {
	var n nodeJSON
	if err := json.Unmarshal(data, &n); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadDescription, err)
	}
	o, err := n.operand(cell)
	if err != nil {
		return nil, err
	}
	if f, ok := o.(*Formula); ok {
		return f, f.err
	}
	return Constant(o), nil
}

// operand decodes one node. Constants decode as raw values, not wrapped
// leaves, so decoded trees compare equal to ones built through the fluent
// API.
func (n nodeJSON) operand(cell *Cell) (Operand, error) {
	switch {
	case n.Var:
		return Variable(cell), nil
	case n.Const != nil:
		return dec.New(*n.Const), nil
	case n.Op != "":
		op, ok := opByName[n.Op]
		if !ok {
			return nil, fmt.Errorf("%w: %q", ErrUnknownOperation, n.Op)
		}
		if len(n.Inputs) != opArity(op) {
			return nil, fmt.Errorf("%w: %s takes %d inputs, got %d",
				ErrBadDescription, n.Op, opArity(op), len(n.Inputs))
		}
		operands := make([]Operand, len(n.Inputs))
		for i, in := range n.Inputs {
			sub, err := in.operand(cell)
			if err != nil {
				return nil, err
			}
			operands[i] = sub
		}
		f := newNode(op, operands...)
		return f, f.err
	default:
		return nil, fmt.Errorf("%w: node needs var, const, or op", ErrBadDescription)
	}
}

// MarshalJSON renders the tree as a JSON description. Non-formula inputs
// marshal as constants holding their current value; combinators fail.
func (f *Formula) MarshalJSON() ([]byte, error) {
	n, err := f.toNode()
	if err != nil {
		return nil, err
	}
	return json.Marshal(n)
}

func (f *Formula) toNode() (nodeJSON, error) {
	if f.err != nil {
		return nodeJSON{}, f.err
	}
	switch f.op {
	case opVariable:
		return nodeJSON{Var: true}, nil
	case opConstant:
		v := f.ins[0].rawValue().Float64()
		return nodeJSON{Const: &v}, nil
	case opPassthrough:
		return f.ins[0].f.toNode()
	case opStep, opConditional:
		return nodeJSON{}, fmt.Errorf("%w: %s", ErrNotSerializable, opTable[f.op].name)
	}
	n := nodeJSON{Op: opTable[f.op].name, Inputs: make([]nodeJSON, len(f.ins))}
	for i, in := range f.ins {
		if in.f != nil {
			sub, err := in.f.toNode()
			if err != nil {
				return nodeJSON{}, err
			}
			n.Inputs[i] = sub
			continue
		}
		v := in.rawValue().Float64()
		n.Inputs[i] = nodeJSON{Const: &v}
	}
	return n, nil
}

// ============================================================
// MCP tools
// ============================================================

type EvaluateInput struct {
	Formula json.RawMessage `json:"formula" jsonschema:"JSON formula description"`
	X       float64         `json:"x" jsonschema:"value of the free variable"`
}

type SolveInput struct {
	Formula json.RawMessage `json:"formula" jsonschema:"JSON formula description"`
	Target  float64         `json:"target" jsonschema:"output value to solve the variable for"`
	X       float64         `json:"x,omitempty" jsonschema:"current value of the free variable"`
}

type PurchaseCostInput struct {
	Formula json.RawMessage `json:"formula" jsonschema:"cost formula over units owned"`
	Owned   float64         `json:"owned" jsonschema:"units currently owned"`
	Amount  float64         `json:"amount" jsonschema:"units to buy"`
	Spend   bool            `json:"spend" jsonschema:"charge the cumulative cost of the whole batch"`
}

type MaxAffordableInput struct {
	Formula json.RawMessage `json:"formula" jsonschema:"cost formula over units owned"`
	Owned   float64         `json:"owned" jsonschema:"units currently owned"`
	Balance float64         `json:"balance" jsonschema:"spendable resource balance"`
	Spend   bool            `json:"spend" jsonschema:"charge the cumulative cost of the whole batch"`
}

type ValueResult struct {
	Value float64 `json:"value"`
}

// RegisterTools adds the engine's tools to an MCP server.
func RegisterTools(s *mcp.Server) {
	mcp.AddTool(s, &mcp.Tool{
		Name:        "formula_evaluate",
		Description: "Evaluates a formula at a variable value",
	}, evaluateTool)
	mcp.AddTool(s, &mcp.Tool{
		Name:        "formula_invert",
		Description: "Solves formula(x) = target for x",
	}, invertTool)
	mcp.AddTool(s, &mcp.Tool{
		Name:        "formula_integral",
		Description: "Evaluates the closed-form antiderivative at a variable value",
	}, integralTool)
	mcp.AddTool(s, &mcp.Tool{
		Name:        "formula_invert_integral",
		Description: "Solves integral(x) = target for x",
	}, invertIntegralTool)
	mcp.AddTool(s, &mcp.Tool{
		Name:        "purchase_cost",
		Description: "Prices a batch of units under a cost formula",
	}, purchaseCostTool)
	mcp.AddTool(s, &mcp.Tool{
		Name:        "purchase_max_affordable",
		Description: "Counts the units purchasable with a balance under a cost formula",
	}, maxAffordableTool)
}

func evaluateTool(_ context.Context, _ *mcp.CallToolRequest, in EvaluateInput) (*mcp.CallToolResult, ValueResult, error) {
	f, err := FromJSON(in.Formula, NewCell(dec.New(in.X)))
	if err != nil {
		return nil, ValueResult{}, err
	}
	v, err := f.Evaluate()
	if err != nil {
		return nil, ValueResult{}, err
	}
	return nil, ValueResult{Value: v.Float64()}, nil
}

func invertTool(_ context.Context, _ *mcp.CallToolRequest, in SolveInput) (*mcp.CallToolResult, ValueResult, error) {
	f, err := FromJSON(in.Formula, NewCell(dec.New(in.X)))
	if err != nil {
		return nil, ValueResult{}, err
	}
	v, err := f.Invert(dec.New(in.Target))
	if err != nil {
		return nil, ValueResult{}, err
	}
	return nil, ValueResult{Value: v.Float64()}, nil
}

func integralTool(_ context.Context, _ *mcp.CallToolRequest, in EvaluateInput) (*mcp.CallToolResult, ValueResult, error) {
	f, err := FromJSON(in.Formula, NewCell(dec.New(in.X)))
	if err != nil {
		return nil, ValueResult{}, err
	}
	v, err := f.EvaluateIntegral()
	if err != nil {
		return nil, ValueResult{}, err
	}
	return nil, ValueResult{Value: v.Float64()}, nil
}

func invertIntegralTool(_ context.Context, _ *mcp.CallToolRequest, in SolveInput) (*mcp.CallToolResult, ValueResult, error) {
	f, err := FromJSON(in.Formula, NewCell(dec.New(in.X)))
	if err != nil {
		return nil, ValueResult{}, err
	}
	v, err := f.InvertIntegral(dec.New(in.Target))
	if err != nil {
		return nil, ValueResult{}, err
	}
	return nil, ValueResult{Value: v.Float64()}, nil
}

func purchaseCostTool(_ context.Context, _ *mcp.CallToolRequest, in PurchaseCostInput) (*mcp.CallToolResult, ValueResult, error) {
	f, err := FromJSON(in.Formula, NewCell(dec.New(in.Owned)))
	if err != nil {
		return nil, ValueResult{}, err
	}
	v, err := Cost(f, dec.New(in.Amount), in.Spend)
	if err != nil {
		return nil, ValueResult{}, err
	}
	return nil, ValueResult{Value: v.Float64()}, nil
}

func maxAffordableTool(_ context.Context, _ *mcp.CallToolRequest, in MaxAffordableInput) (*mcp.CallToolResult, ValueResult, error) {
	f, err := FromJSON(in.Formula, NewCell(dec.New(in.Owned)))
	if err != nil {
		return nil, ValueResult{}, err
	}
	v, err := MaxAffordable(f, NewPool(dec.New(in.Balance)), in.Spend)
	if err != nil {
		return nil, ValueResult{}, err
	}
	return nil, ValueResult{Value: v.Float64()}, nil
}
