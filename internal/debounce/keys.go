// Package debounce implements the turn-coalescing engine: inbound messages
// from one user that arrive within a sliding window are buffered and
// flushed as a single conversational turn, with duplicate provider
// deliveries rejected and at most one worker flushing a given user at a
// time. All coordination goes through the kv.Store, so the engine is
// correct across processes that share one store.
package debounce

import "fmt"

// Store key layout, partitioned by user except for dedup which is
// partitioned by provider message id.
func bufKey(userID string) string   { return fmt.Sprintf("wa:%s:buf", userID) }
func timerKey(userID string) string { return fmt.Sprintf("wa:%s:timer", userID) }
func lockKey(userID string) string  { return fmt.Sprintf("wa:%s:lock", userID) }
func dedupKey(msgID string) string  { return fmt.Sprintf("wa:dedup:%s", msgID) }
