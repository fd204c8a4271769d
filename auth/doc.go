/*
Package auth is for authentication and authorization. It contains the role hierarchy, the editorial profile of a user, the interfaces of the authentication provider and the profile store, and the SessionManager which glues them together.

Roles

Roles are totally ordered:

  super_admin (5) > editor (4) > journalist (3) > contributor (2) > subscriber (1)

Unknown role strings have level 0 and dominate nothing. Use Dominates for every role comparison.

Profiles

A profile is the editorial identity of an authenticated user. It is usually persisted in a ProfileDB.
If the ProfileDB does not answer in time, answers with an error, or has no record, the SessionManager synthesizes a fallback profile from the email address.
A synthesized profile is never written back. It lives as long as the session.

Sessions

A SessionManager belongs to one client session. It reacts to the events of a Provider: sign-in, sign-up, restored session and token refresh resolve the profile, sign-out clears it.
The latest event wins. A profile fetch which finishes after a newer event has been processed is discarded.
*/
package auth
