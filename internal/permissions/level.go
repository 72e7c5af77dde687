package permissions

import "strings"

// Level es el nivel efectivo de permiso sobre un scope.
// Ranking: none < view < edit < manage < owner.
// Owner nunca se guarda como grant: se deriva de la autoría del paciente.
type Level string

const (
	LevelNone   Level = "none"
	LevelView   Level = "view"
	LevelEdit   Level = "edit"
	LevelManage Level = "manage"
	LevelOwner  Level = "owner"
)

var ranks = map[Level]int{
	LevelNone:   0,
	LevelView:   1,
	LevelEdit:   2,
	LevelManage: 3,
	LevelOwner:  4,
}

// ParseLevel valida un level que viene de un request.
// Owner no es parseable: no se asigna, se deriva.
func ParseLevel(s string) (Level, bool) {
	l := Level(strings.ToLower(strings.TrimSpace(s)))
	switch l {
	case LevelView, LevelEdit, LevelManage:
		return l, true
	default:
		return LevelNone, false
	}
}

// ParseLockLevel valida el level de un section lock: solo edit o manage.
func ParseLockLevel(s string) (Level, bool) {
	l := Level(strings.ToLower(strings.TrimSpace(s)))
	switch l {
	case LevelEdit, LevelManage:
		return l, true
	default:
		return LevelNone, false
	}
}

func (l Level) Rank() int {
	return ranks[l]
}

func (l Level) AtLeast(min Level) bool {
	return l.Rank() >= min.Rank()
}

func (l Level) Above(other Level) bool {
	return l.Rank() > other.Rank()
}

func MaxLevel(a, b Level) Level {
	if b.Rank() > a.Rank() {
		return b
	}
	return a
}
