package models

import "time"

// Kind определяет категорию матча: на трофеи или на звёзды
type Kind string

const (
	KindTrophy Kind = "trophy"
	KindStar   Kind = "star"
)

// Valid проверяет, что категория известна
func (k Kind) Valid() bool {
	return k == KindTrophy || k == KindStar
}

// AvailState описывает, чем занят игрок
type AvailState string

const (
	StateIdle    AvailState = "idle"     // свободен
	StateQueued  AvailState = "queued"   // ждёт соперника в очереди
	StateInMatch AvailState = "in_match" // играет матч
)

// Availability — явное состояние занятости игрока.
// Игрок либо свободен, либо в одной очереди, либо в одном матче —
// взаимное исключение гарантируется единственным полем, а не
// парой необязательных флагов.
type Availability struct {
	State     AvailState `json:"state"`
	QueueKind Kind       `json:"queue_kind,omitempty"` // заполнено только при State == queued
	MatchID   string     `json:"match_id,omitempty"`   // заполнено только при State == in_match
}

// Idle возвращает состояние «свободен»
func Idle() Availability {
	return Availability{State: StateIdle}
}

// Queued возвращает состояние «в очереди kind»
func Queued(kind Kind) Availability {
	return Availability{State: StateQueued, QueueKind: kind}
}

// InMatch возвращает состояние «в матче matchID»
func InMatch(matchID string) Availability {
	return Availability{State: StateInMatch, MatchID: matchID}
}

// IsIdle сообщает, свободен ли игрок
func (a Availability) IsIdle() bool {
	return a.State == StateIdle
}

// Profile представляет игрока и его балансы
type Profile struct {
	ID            string       `json:"id"`              // стабильный идентификатор игрока
	Username      string       `json:"username"`        // отображаемое имя (может быть пустым)
	Lang          string       `json:"lang"`            // предпочитаемый язык ("en"/"ru")
	Trophies      int          `json:"trophies"`        // трофеи, не бывают отрицательными
	Stars         float64      `json:"stars"`           // звёзды, меняются шагами по 0.5
	MatchesPlayed int          `json:"matches_played"`  // сыграно матчей
	Wins          int          `json:"wins"`            // выиграно матчей
	LastBonusDate string       `json:"last_bonus_date"` // дата последнего бонуса, "YYYY-MM-DD" UTC
	LastActiveAt  time.Time    `json:"last_active_at"`  // время последней активности
	CreatedAt     time.Time    `json:"created_at"`      // время первого контакта
	Availability  Availability `json:"availability"`    // очередь/матч/свободен
}

// NewProfile создает профиль с балансами по умолчанию
func NewProfile(id, username string, initialStars float64) *Profile {
	now := time.Now().UTC()
	return &Profile{
		ID:           id,
		Username:     username,
		Lang:         "en",
		Stars:        initialStars,
		LastActiveAt: now,
		CreatedAt:    now,
		Availability: Idle(),
	}
}
