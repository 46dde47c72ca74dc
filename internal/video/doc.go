// Package video defines the persisted video record, the "WxH" resize keys
// recorded on it, and the on-disk layout of each video's assets.
package video
