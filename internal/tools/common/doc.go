// Package common holds the pieces shared by every tool: the uniform
// success/failure result envelope and the instrumented handler wrapper.
package common
