package domain

import "time"

// FriendshipStatus tracks the state of a relationship between two users.
type FriendshipStatus string

const (
	FriendshipPending  FriendshipStatus = "pending"
	FriendshipAccepted FriendshipStatus = "accepted"
	FriendshipBlocked  FriendshipStatus = "blocked"
)

// Friendship links two user profiles. State transitions are validated
// synchronously; an invalid transition never reaches persistence.
type Friendship struct {
	ID          string           `bson:"_id" json:"id"`
	RequesterID string           `bson:"requesterId" json:"requesterId"`
	AddresseeID string           `bson:"addresseeId" json:"addresseeId"`
	Status      FriendshipStatus `bson:"status" json:"status"`
	CreatedAt   time.Time        `bson:"createdAt" json:"createdAt"`
	UpdatedAt   time.Time        `bson:"updatedAt" json:"updatedAt"`
	SyncStatus  SyncStatus       `bson:"syncStatus" json:"syncStatus"`
}

// Accept transitions a pending request to accepted.
func (f *Friendship) Accept() error {
	switch f.Status {
	case FriendshipAccepted:
		return ErrAlreadyFriends
	case FriendshipBlocked:
		return ErrBlocked
	case FriendshipPending:
		f.Status = FriendshipAccepted
		f.UpdatedAt = Touch(f.UpdatedAt)
		return nil
	default:
		return ErrInvalidState
	}
}

// Block marks the relationship blocked from either side.
func (f *Friendship) Block() error {
	if f.Status == FriendshipBlocked {
		return ErrInvalidState
	}
	f.Status = FriendshipBlocked
	f.UpdatedAt = Touch(f.UpdatedAt)
	return nil
}

// Conversation groups messages between two or more participants.
type Conversation struct {
	ID             string     `bson:"_id" json:"id"`
	ParticipantIDs []string   `bson:"participantIds" json:"participantIds"`
	LastMessageAt  *time.Time `bson:"lastMessageAt,omitempty" json:"lastMessageAt,omitempty"`
	CreatedAt      time.Time  `bson:"createdAt" json:"createdAt"`
	UpdatedAt      time.Time  `bson:"updatedAt" json:"updatedAt"`
	SyncStatus     SyncStatus `bson:"syncStatus" json:"syncStatus"`
}

// Message is a single chat message within a conversation.
type Message struct {
	ID             string     `bson:"_id" json:"id"`
	ConversationID string     `bson:"conversationId" json:"conversationId"`
	SenderID       string     `bson:"senderId" json:"senderId"`
	Body           string     `bson:"body" json:"body"`
	SentAt         time.Time  `bson:"sentAt" json:"sentAt"`
	CreatedAt      time.Time  `bson:"createdAt" json:"createdAt"`
	UpdatedAt      time.Time  `bson:"updatedAt" json:"updatedAt"`
	SyncStatus     SyncStatus `bson:"syncStatus" json:"syncStatus"`
}

// Post is a social-feed entry, optionally attached to a session.
type Post struct {
	ID         string     `bson:"_id" json:"id"`
	AuthorID   string     `bson:"authorId" json:"authorId"`
	SessionID  string     `bson:"sessionId,omitempty" json:"sessionId,omitempty"`
	Body       string     `bson:"body" json:"body"`
	CreatedAt  time.Time  `bson:"createdAt" json:"createdAt"`
	UpdatedAt  time.Time  `bson:"updatedAt" json:"updatedAt"`
	SyncStatus SyncStatus `bson:"syncStatus" json:"syncStatus"`
}

// UserProfile is the user's own profile document. The sync engine does
// not own it; after a pull it is handed off to the profile subsystem via
// the event bus.
type UserProfile struct {
	ID          string     `bson:"_id" json:"id"`
	DisplayName string     `bson:"displayName" json:"displayName"`
	Bio         string     `bson:"bio,omitempty" json:"bio,omitempty"`
	BodyWeight  *float64   `bson:"bodyWeight,omitempty" json:"bodyWeight,omitempty"`
	CreatedAt   time.Time  `bson:"createdAt" json:"createdAt"`
	UpdatedAt   time.Time  `bson:"updatedAt" json:"updatedAt"`
	SyncStatus  SyncStatus `bson:"syncStatus" json:"syncStatus"`
}

// ScheduledWorkout is a calendar entry placing a workout on a date. Owned
// by the scheduling subsystem; the sync engine only transports it.
type ScheduledWorkout struct {
	ID         string     `bson:"_id" json:"id"`
	WorkoutID  string     `bson:"workoutId" json:"workoutId"`
	Date       time.Time  `bson:"date" json:"date"`
	Completed  bool       `bson:"completed" json:"completed"`
	CreatedAt  time.Time  `bson:"createdAt" json:"createdAt"`
	UpdatedAt  time.Time  `bson:"updatedAt" json:"updatedAt"`
	SyncStatus SyncStatus `bson:"syncStatus" json:"syncStatus"`
}
