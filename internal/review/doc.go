// Package review aggregates the distinct participants of a pull request or
// issue: everyone who submitted a review or wrote a comment, minus the
// request's author.
package review
