// Package client implements the client-record lifecycle: the in-memory
// snapshot kept in sync with the database, the expiring-soon alert
// projection, and the list filter facade.
//
// The service layer depends only on the repository and change-feed
// interfaces defined in this package and should never import from api/.
// Repository implementations live in repository/postgres/.
package client
