// Package location provides IP geolocation lookups and timezone conversion,
// the companion helpers a scheduling agent needs to anchor "3pm my time" to a
// concrete zone.
package location
