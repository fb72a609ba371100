package query

// JoinConditions is the ON tree of a join. It shares the AND/OR layout of
// Conditions but its leaves compare two columns or a column and a bound value.
type JoinConditions struct {
	statements []JoinCondition
}

// Statements returns the nodes on this level.
func (j *JoinConditions) Statements() []JoinCondition {
	return j.statements
}

// Len returns the number of nodes on this level.
func (j *JoinConditions) Len() int {
	return len(j.statements)
}

// On compares two columns.
func (j *JoinConditions) On(left string, op Operator, right string) *JoinConditions {
	j.statements = append(j.statements, JoinCondition{On: &ColumnComparison{Left: left, Operator: op, Right: right}})
	return j
}

// OnVal compares a column with a bound value.
func (j *JoinConditions) OnVal(column string, op Operator, value any) *JoinConditions {
	j.statements = append(j.statements, JoinCondition{Value: newCondition(column, op, value)})
	return j
}

// OnRaw appends a verbatim fragment.
func (j *JoinConditions) OnRaw(sql string, binds ...any) *JoinConditions {
	j.statements = append(j.statements, JoinCondition{Raw: &Fragment{SQL: sql, Binds: binds}})
	return j
}

// And appends an empty AND group and returns it.
func (j *JoinConditions) And() *JoinConditions {
	group := &JoinConditions{}
	j.statements = append(j.statements, JoinCondition{And: group})
	return group
}

// Or appends an empty OR group and returns it.
func (j *JoinConditions) Or() *JoinConditions {
	group := &JoinConditions{}
	j.statements = append(j.statements, JoinCondition{Or: group})
	return group
}

// Clone returns a deep copy.
func (j *JoinConditions) Clone() *JoinConditions {
	if j == nil {
		return nil
	}
	out := &JoinConditions{statements: make([]JoinCondition, 0, len(j.statements))}
	for _, s := range j.statements {
		switch {
		case s.On != nil:
			on := *s.On
			out.statements = append(out.statements, JoinCondition{On: &on})
		case s.Value != nil:
			out.statements = append(out.statements, JoinCondition{Value: s.Value.clone()})
		case s.Raw != nil:
			raw := s.Raw.clone()
			out.statements = append(out.statements, JoinCondition{Raw: &raw})
		case s.And != nil:
			out.statements = append(out.statements, JoinCondition{And: s.And.Clone()})
		case s.Or != nil:
			out.statements = append(out.statements, JoinCondition{Or: s.Or.Clone()})
		}
	}
	return out
}

func (j *Join) clone() *Join {
	out := &Join{Type: j.Type, Table: j.Table, Alias: j.Alias, Conditions: *j.Conditions.Clone()}
	if j.Raw != nil {
		raw := j.Raw.clone()
		out.Raw = &raw
	}
	return out
}
