// Package location_tools registers the companion tools a scheduling
// conversation needs around calendars: detecting the caller's location and
// timezone from an IP address, and converting clock times between zones.
package location_tools
