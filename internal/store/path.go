package store

import "strings"

// Top-level namespaces of the persisted layout.
const (
	NamespaceUsers     = "Users"
	NamespaceEvents    = "Events"
	NamespaceWishlists = "Wishlists"
	NamespaceBookings  = "Bookings"
)

// Path addresses a node in the store's hierarchy. The parent of a node is
// the path minus its last segment; subscribing to a parent observes all of
// its children.
type Path []string

func (p Path) String() string {
	return "/" + strings.Join(p, "/")
}

// Child returns the path extended by one segment.
func (p Path) Child(segment string) Path {
	child := make(Path, 0, len(p)+1)
	child = append(child, p...)
	return append(child, segment)
}

// Parent returns the enclosing collection path and the node's own id.
func (p Path) Parent() (Path, string) {
	if len(p) == 0 {
		return nil, ""
	}
	return p[:len(p)-1], p[len(p)-1]
}

func UserPath(userID string) Path {
	return Path{NamespaceUsers, userID}
}

func EventsPath(userID string) Path {
	return Path{NamespaceEvents, userID}
}

func EventPath(userID, eventID string) Path {
	return Path{NamespaceEvents, userID, eventID}
}

func WishlistPath(userID string) Path {
	return Path{NamespaceWishlists, userID}
}

func WishlistEntryPath(userID, eventID string) Path {
	return Path{NamespaceWishlists, userID, eventID}
}

func BookingsPath(userID string) Path {
	return Path{NamespaceBookings, userID}
}

func BookingPath(userID, bookingID string) Path {
	return Path{NamespaceBookings, userID, bookingID}
}
