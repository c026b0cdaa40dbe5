package ast

type (
	StmtID  uint32
	ExprID  uint32
	FuncID  uint32
	ClassID uint32
	ParamID uint32
)

const (
	NoStmtID  StmtID  = 0
	NoExprID  ExprID  = 0
	NoFuncID  FuncID  = 0
	NoClassID ClassID = 0
	NoParamID ParamID = 0
)

func (id StmtID) IsValid() bool  { return id != NoStmtID }
func (id ExprID) IsValid() bool  { return id != NoExprID }
func (id FuncID) IsValid() bool  { return id != NoFuncID }
func (id ClassID) IsValid() bool { return id != NoClassID }
func (id ParamID) IsValid() bool { return id != NoParamID }
