// Package permission parses and matches two-segment permission strings of the
// form "<namespace>:<action>", e.g. "finance:read".
//
// Either segment may be the wildcard "*":
//
//   - "finance:*" grants every action in the finance namespace
//   - "*:read" grants read in every namespace
//   - "*:*" grants everything
//
// Matching is a per-segment rule, not a glob engine: a granted segment matches a
// requested segment when it is "*" or equal to it. Permissions are additive
// grants; there is no deny form.
//
// A Set holds a deduplicated collection of granted permissions and answers
// Allows in constant time:
//
//	set, err := permission.NewSet("finance:*", "*:read")
//	if err != nil {
//	    // invalid permission string
//	}
//	set.Allows("finance:write") // true
//	set.Allows("hr:read")       // true
//	set.Allows("hr:write")      // false
package permission
