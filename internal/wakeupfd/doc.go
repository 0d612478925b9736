// Package wakeupfd implements the self-pipe wakeup channel (§4.4): a pair
// of non-blocking file descriptors whose read end is permanently in the
// dispatcher's read set, letting any control-surface goroutine interrupt a
// blocked Wait call by writing one byte. Grounded directly on
// ANetworkSession::interrupt()/mPipeFd in the original implementation.
package wakeupfd
