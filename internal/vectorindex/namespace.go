// Package vectorindex resolves per-user index namespaces. Backend
// implementations live in the subpackages and are selected by config.
package vectorindex

// userPrefix keeps user namespaces clear of any other collection category
// the index host might hold.
const userPrefix = "knowledge_base_user_"

// ForUser derives the isolated namespace for a user id. Plain concatenation
// keeps the mapping injective: distinct ids never collide.
func ForUser(userID string) string {
	return userPrefix + userID
}
