// Package services defines the [Catalog] and [Publisher] interfaces and implements them for
// Subsonic-compatible servers (Navidrome, Gonic, Airsonic) in [SubsonicClient].
//
// # Authentication
//
// Every request carries the u, v, c and f=json query parameters. In "token" mode (the default)
// a fresh random salt s is generated per request and t = md5(password + salt). In "password"
// mode the password is sent hex-encoded as p=enc:<hex> for servers without token support.
//
// # Responses
//
// All endpoints reply with a "subsonic-response" envelope. A status other than "ok" is
// returned as a [*SubsonicError], which matches [shared.ErrAPIRequest] with errors.Is, and
// [shared.ErrAuthFailed] as well for error codes 40 and 41.
//
// # Candidate Pools
//
// [SubsonicClient.FetchPool] calls getRandomSongs. In diverse mode it fetches half the pool at
// random, then queries each genre seed concurrently through an errgroup bounded by the worker
// count and an x/time/rate limiter. A failed genre fetch is logged and skipped. Results are
// deduplicated by song ID, keeping the first occurrence.
//
// # Publishing
//
// [SubsonicClient.Publish] deletes existing playlists selected by the request's Replaces
// callback, then calls createPlaylist with repeated songId parameters. Delete failures are
// logged and do not stop creation.
package services
