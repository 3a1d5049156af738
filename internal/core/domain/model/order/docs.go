// Package order contains the Order aggregate and its supporting value
// objects: the lifecycle Status state machine and the immutable
// AssignmentRecord audit entry produced when a courier is matched.
package order
