// Package calendar is the gateway to the Google Calendar API. It turns
// stored credential records into authenticated services, refreshing stale
// access tokens on use, and exposes the five scheduling operations the tool
// surface needs: freebusy, create, list, update and delete.
package calendar
