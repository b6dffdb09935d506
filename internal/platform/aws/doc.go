// Package aws builds AWS SDK clients and wraps the single-call provider
// operations that need no waiting: parameter store access, session tokens,
// hosted zone listing, user pool domain lookup and CodeArtifact tokens.
package aws
