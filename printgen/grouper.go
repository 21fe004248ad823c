package printgen

// FieldGroup 同一个类型下的全部标记字段
type FieldGroup struct {
	Owner  *Owner
	Fields []ResolvedField // 发现顺序
}

// GroupFields 按所属类型的身份分组
// 组的顺序为类型首次出现的顺序，组内保持字段的发现顺序
func GroupFields(fields []ResolvedField) []*FieldGroup {
	index := make(map[any]int)
	var groups []*FieldGroup
	for _, f := range fields {
		key := f.Owner.key()
		i, ok := index[key]
		if !ok {
			i = len(groups)
			index[key] = i
			groups = append(groups, &FieldGroup{Owner: f.Owner})
		}
		groups[i].Fields = append(groups[i].Fields, f)
	}
	return groups
}
