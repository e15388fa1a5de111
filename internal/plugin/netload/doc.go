// Package netload loads remote plugin scripts.
//
// A Loader takes the plugin descriptors listed by the server, resolves
// each source against the API base, fetches the script, checks its
// subresource integrity hash when one is given and executes it in the Lua
// runtime. The plugins a script registers are returned to the caller and
// the descriptor options are attached to them in the options store.
//
// Loading is all-settle: every descriptor is attempted concurrently and
// failures are logged instead of aborting the batch. Scripts are attached
// at most once per Loader; asking for an attached URL again resolves
// immediately with the plugins that script already registered.
package netload
