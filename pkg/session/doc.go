/*
Package session implements session lifecycle and persistence orchestration.

Manager serializes turns per session (one in-flight turn per conversation), across
replicas when a distributed locker is configured. Begin decides where a new
conversation starts: onboarding for guests and incomplete profiles, greeting
for everyone else.
*/
package session
