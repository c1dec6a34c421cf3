// Package chat holds the client side of a docchat conversation.
//
// A Store owns the ordered messages and the (question, answer) history of one
// session. An Orchestrator is the single writer of that Store: it turns typed
// input events into submissions, runs each submission through a Pipeline and
// folds the Result back into the Store. HTTPClient is the Pipeline that talks
// to the docchat server's POST /api/chat route.
package chat
