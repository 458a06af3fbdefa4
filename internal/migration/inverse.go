package migration

// Inverse returns the default inverse operation used for auto-rollback,
// and whether a safe inverse exists. Backfill and the destructive drop
// kinds have no safe inverse: the data they touch is not recoverable, so
// rollback for them is deliberately omitted rather than defaulted to a
// no-op.
func Inverse(op Operation) (Operation, bool) {
	switch op.Kind {
	case OpAddColumn:
		return Operation{
			Kind:   OpDropColumn,
			Table:  op.Table,
			Column: op.Column,
		}, true

	case OpAddIndex:
		return Operation{
			Kind:  OpDropIndex,
			Table: op.Table,
			Name:  op.Name,
		}, true

	case OpAddConstraint:
		return Operation{
			Kind:  OpDropConstraint,
			Table: op.Table,
			Name:  op.Name,
		}, true

	case OpSetNotNull:
		return Operation{
			Kind:   OpDropNotNull,
			Table:  op.Table,
			Column: op.Column,
		}, true

	case OpDropNotNull:
		return Operation{
			Kind:   OpSetNotNull,
			Table:  op.Table,
			Column: op.Column,
		}, true

	case OpDualWriteEnable:
		return Operation{
			Kind:    OpDualWriteDisable,
			FlagKey: op.FlagKey,
		}, true

	case OpDualWriteDisable:
		return Operation{
			Kind:    OpDualWriteEnable,
			FlagKey: op.FlagKey,
		}, true

	default:
		// drop_column, drop_index, drop_constraint and backfill cannot be
		// undone without the dropped definition or the overwritten data.
		return Operation{}, false
	}
}
