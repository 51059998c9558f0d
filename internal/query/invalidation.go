package query

// MutationKind names a write operation for invalidation purposes.
type MutationKind string

const (
	CreateEvent MutationKind = "create-event"
	UpdateEvent MutationKind = "update-event"
	CreateUser  MutationKind = "create-user"
	UpdateUser  MutationKind = "update-user"
	DeleteUser  MutationKind = "delete-user"
)

// Key classes used by the admin client.
const (
	ClassEvents = "events" // paginated event listings
	ClassEvent  = "event"  // single event details with roster
	ClassUsers  = "users"  // user list and, with an id part, user details
)

// InvalidationTable maps a mutation kind to the key prefixes it
// invalidates when it succeeds.
type InvalidationTable map[MutationKind][]Key

// DefaultInvalidations is the static invalidation policy.
// Deleting a user changes event rosters, so it also reaches events.
func DefaultInvalidations() InvalidationTable {
	return InvalidationTable{
		CreateEvent: {K(ClassEvents)},
		UpdateEvent: {K(ClassEvents), K(ClassEvent)},
		CreateUser:  {K(ClassUsers)},
		UpdateUser:  {K(ClassUsers)},
		DeleteUser:  {K(ClassUsers), K(ClassEvents), K(ClassEvent)},
	}
}
