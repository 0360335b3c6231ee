package portfolio

// GroupSkills partitions skills by category. Categories keep the order in
// which they are first seen and each group keeps the input order of its
// skills.
func GroupSkills(skills []Skill) []SkillGroup {
	index := make(map[string]int)
	var groups []SkillGroup
	for _, s := range skills {
		i, ok := index[s.Category]
		if !ok {
			i = len(groups)
			index[s.Category] = i
			groups = append(groups, SkillGroup{Category: s.Category})
		}
		groups[i].Skills = append(groups[i].Skills, s)
	}
	return groups
}

// Categories returns the distinct categories in first-seen order.
func Categories(skills []Skill) []string {
	groups := GroupSkills(skills)
	out := make([]string, len(groups))
	for i, g := range groups {
		out[i] = g.Category
	}
	return out
}
