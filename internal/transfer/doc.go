// Package transfer contains the storage backends that carry staged parts to
// object storage.
package transfer
