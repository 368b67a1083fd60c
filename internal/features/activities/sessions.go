// Package activities — sessions.go хранит состояние незавершённых
// мини-игр в памяти. Сессии привязаны к сообщению с кнопками,
// живут ограниченное время и не переживают перезапуск процесса.
package activities

import (
	"sync"
	"time"

	"github.com/disgoorg/snowflake/v2"

	"royalacademy.app/discord-bot/internal/common"
)

// PotionSession — выбор ингредиентов одного пользователя.
type PotionSession struct {
	UserID   int64
	Selected []string
	Locked   bool // Варка началась, выбор менять нельзя
	expires  time.Time
}

// Cost возвращает стоимость текущего выбора.
func (s *PotionSession) Cost() int64 {
	return IngredientsCost(s.Selected)
}

// TeaPhase — стадия чайной вечеринки.
type TeaPhase int

const (
	TeaPhaseLobby TeaPhase = iota
	TeaPhaseRound
	TeaPhaseFinished
)

// teaRounds — количество раундов роллплея за вечеринку.
const teaRounds = 3

// TeaSession — чайная вечеринка от лобби до выплаты.
type TeaSession struct {
	HostID          int64
	Theme           string
	MaxParticipants int
	ChannelID       snowflake.ID
	Participants    []int64
	Phase           TeaPhase
	Round           int
	Topics          [teaRounds]string
	RoundStart      time.Time

	done          map[int64]struct{} // Завершившие текущий раунд
	processing    map[int64]struct{} // Нажавшие «отправить», но ещё не обработанные
	transitioning bool               // Переход между раундами уже запущен
	expires       time.Time
}

// HasParticipant сообщает, состоит ли участник в вечеринке.
func (s *TeaSession) HasParticipant(userID int64) bool {
	for _, id := range s.Participants {
		if id == userID {
			return true
		}
	}
	return false
}

// Manager хранит активные сессии мини-игр по id сообщения.
type Manager struct {
	mu      sync.Mutex
	potions map[snowflake.ID]*PotionSession
	teas    map[snowflake.ID]*TeaSession

	potionTTL time.Duration
	lobbyTTL  time.Duration
	roundTTL  time.Duration
	now       func() time.Time
}

// NewManager создаёт менеджер сессий.
func NewManager(potionTTL, lobbyTTL, roundTTL time.Duration) *Manager {
	return &Manager{
		potions:   make(map[snowflake.ID]*PotionSession),
		teas:      make(map[snowflake.ID]*TeaSession),
		potionTTL: potionTTL,
		lobbyTTL:  lobbyTTL,
		roundTTL:  roundTTL,
		now:       time.Now,
	}
}

// --- Варка зелий ---

// PutPotion регистрирует новую сессию выбора ингредиентов.
func (m *Manager) PutPotion(messageID snowflake.ID, userID int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.potions[messageID] = &PotionSession{
		UserID:  userID,
		expires: m.now().Add(m.potionTTL),
	}
}

// SelectIngredients обновляет выбор ингредиентов.
// Возвращает новую стоимость варки.
func (m *Manager) SelectIngredients(messageID snowflake.ID, userID int64, keys []string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.livePotion(messageID)
	if !ok {
		return 0, common.ErrSessionNotFound
	}
	if s.UserID != userID {
		return 0, common.ErrNotYourSession
	}
	if s.Locked {
		return 0, common.ErrSessionNotFound
	}
	s.Selected = keys
	return s.Cost(), nil
}

// LockPotion фиксирует выбор перед варкой. Требуется минимум minIngredients.
func (m *Manager) LockPotion(messageID snowflake.ID, userID int64, minIngredients int) (*PotionSession, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.livePotion(messageID)
	if !ok {
		return nil, common.ErrSessionNotFound
	}
	if s.UserID != userID {
		return nil, common.ErrNotYourSession
	}
	if s.Locked || len(s.Selected) < minIngredients {
		return nil, common.ErrSessionNotFound
	}
	s.Locked = true
	return s, nil
}

// UnlockPotion снимает фиксацию, если списание не прошло.
func (m *Manager) UnlockPotion(messageID snowflake.ID) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if s, ok := m.potions[messageID]; ok {
		s.Locked = false
	}
}

// TakePotion забирает зафиксированную сессию для розыгрыша.
func (m *Manager) TakePotion(messageID snowflake.ID, userID int64) (*PotionSession, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.potions[messageID]
	if !ok || !s.Locked {
		return nil, common.ErrSessionNotFound
	}
	if s.UserID != userID {
		return nil, common.ErrNotYourSession
	}
	delete(m.potions, messageID)
	return s, nil
}

// DeletePotion убирает сессию после варки.
func (m *Manager) DeletePotion(messageID snowflake.ID) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.potions, messageID)
}

func (m *Manager) livePotion(messageID snowflake.ID) (*PotionSession, bool) {
	s, ok := m.potions[messageID]
	if !ok {
		return nil, false
	}
	if m.now().After(s.expires) {
		delete(m.potions, messageID)
		return nil, false
	}
	return s, true
}

// --- Чайные вечеринки ---

// PutTea регистрирует лобби вечеринки.
func (m *Manager) PutTea(messageID snowflake.ID, s *TeaSession) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s.done = make(map[int64]struct{})
	s.processing = make(map[int64]struct{})
	s.expires = m.now().Add(m.lobbyTTL)
	m.teas[messageID] = s
}

// JoinTea добавляет участника в лобби. Возвращает текущий список.
func (m *Manager) JoinTea(messageID snowflake.ID, userID int64) ([]int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.liveTea(messageID)
	if !ok || s.Phase != TeaPhaseLobby {
		return nil, common.ErrSessionNotFound
	}
	if s.HasParticipant(userID) {
		return nil, common.ErrAlreadyJoined
	}
	if len(s.Participants) >= s.MaxParticipants {
		return nil, common.ErrLobbyFull
	}
	s.Participants = append(s.Participants, userID)
	out := make([]int64, len(s.Participants))
	copy(out, s.Participants)
	return out, nil
}

// CancelTea удаляет лобби. Отменить может только хозяин и только до старта.
func (m *Manager) CancelTea(messageID snowflake.ID, userID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.liveTea(messageID)
	if !ok || s.Phase != TeaPhaseLobby {
		return common.ErrSessionNotFound
	}
	if s.HostID != userID {
		return common.ErrNotYourSession
	}
	delete(m.teas, messageID)
	return nil
}

// StartTea переводит лобби в первый раунд.
func (m *Manager) StartTea(messageID snowflake.ID, userID int64, topics [teaRounds]string) (*TeaSession, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.liveTea(messageID)
	if !ok || s.Phase != TeaPhaseLobby {
		return nil, common.ErrSessionNotFound
	}
	if s.HostID != userID {
		return nil, common.ErrNotYourSession
	}
	s.Phase = TeaPhaseRound
	s.Round = 1
	s.Topics = topics
	s.RoundStart = m.now()
	s.expires = m.now().Add(m.roundTTL)
	return s, nil
}

// RekeyTea перевешивает сессию на сообщение нового раунда.
func (m *Manager) RekeyTea(oldMessageID, newMessageID snowflake.ID) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if s, ok := m.teas[oldMessageID]; ok {
		delete(m.teas, oldMessageID)
		m.teas[newMessageID] = s
	}
}

// SubmitState — итог нажатия «отправить RP».
type SubmitState struct {
	Session    *TeaSession
	Done       []int64 // Уже завершившие раунд
	AllDone    bool    // Этот клик закрыл раунд
	LastRound  bool
	RoundStart time.Time
}

// BeginSubmit резервирует обработку клика участника. Повторный клик
// до завершения первого отклоняется.
func (m *Manager) BeginSubmit(messageID snowflake.ID, userID int64) (*TeaSession, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.liveTea(messageID)
	if !ok || s.Phase != TeaPhaseRound {
		return nil, common.ErrSessionNotFound
	}
	if !s.HasParticipant(userID) {
		return nil, common.ErrNotYourSession
	}
	if _, busy := s.processing[userID]; busy {
		return nil, common.ErrAlreadyJoined
	}
	s.processing[userID] = struct{}{}
	return s, nil
}

// CompleteSubmit фиксирует результат проверки RP-сообщения.
// Переход раунда срабатывает ровно один раз, даже если два участника
// закрыли раунд одновременно.
func (m *Manager) CompleteSubmit(messageID snowflake.ID, userID int64, verified bool) SubmitState {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.teas[messageID]
	if !ok {
		return SubmitState{}
	}
	delete(s.processing, userID)
	if !verified {
		return SubmitState{Session: s, Done: doneList(s)}
	}

	s.done[userID] = struct{}{}
	state := SubmitState{Session: s, Done: doneList(s), LastRound: s.Round >= teaRounds}
	if len(s.done) == len(s.Participants) && !s.transitioning {
		s.transitioning = true
		state.AllDone = true
	}
	return state
}

// AdvanceRound начинает следующий раунд после срабатывания перехода.
func (m *Manager) AdvanceRound(messageID snowflake.ID) (*TeaSession, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.teas[messageID]
	if !ok || !s.transitioning {
		return nil, false
	}
	if s.Round >= teaRounds {
		s.Phase = TeaPhaseFinished
		delete(m.teas, messageID)
		return s, true
	}
	s.Round++
	s.done = make(map[int64]struct{})
	s.transitioning = false
	s.RoundStart = m.now()
	s.expires = m.now().Add(m.roundTTL)
	return s, true
}

func (m *Manager) liveTea(messageID snowflake.ID) (*TeaSession, bool) {
	s, ok := m.teas[messageID]
	if !ok {
		return nil, false
	}
	if m.now().After(s.expires) {
		delete(m.teas, messageID)
		return nil, false
	}
	return s, true
}

func doneList(s *TeaSession) []int64 {
	out := make([]int64, 0, len(s.done))
	for _, id := range s.Participants {
		if _, ok := s.done[id]; ok {
			out = append(out, id)
		}
	}
	return out
}

// ExpiredLobby — умершее несыгранное лобби; хозяину возвращается
// слот недельной квоты.
type ExpiredLobby struct {
	MessageID snowflake.ID
	HostID    int64
}

// Sweep удаляет истёкшие сессии и возвращает умершие лобби.
func (m *Manager) Sweep() []ExpiredLobby {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	for id, s := range m.potions {
		if now.After(s.expires) {
			delete(m.potions, id)
		}
	}

	var expired []ExpiredLobby
	for id, s := range m.teas {
		if !now.After(s.expires) {
			continue
		}
		if s.Phase == TeaPhaseLobby {
			expired = append(expired, ExpiredLobby{MessageID: id, HostID: s.HostID})
		}
		delete(m.teas, id)
	}
	return expired
}
