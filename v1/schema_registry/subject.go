package schema_registry

import (
	"fmt"
	"strings"
)

// SubjectNameStrategy derives the registry subject for a schema written to topic.
// recordName is the full name of the schema's top level record.
type SubjectNameStrategy func(topic string, isKey bool, recordName string) string

// TopicNameStrategy names the subject "<topic>-key" or "<topic>-value".
// It is the registry default.
func TopicNameStrategy(topic string, isKey bool, _ string) string {
	if isKey {
		return topic + "-key"
	}
	return topic + "-value"
}

// RecordNameStrategy names the subject after the record full name, so one
// record type shares a subject across topics.
func RecordNameStrategy(_ string, _ bool, recordName string) string {
	return recordName
}

// TopicRecordNameStrategy names the subject "<topic>-<record full name>".
func TopicRecordNameStrategy(topic string, _ bool, recordName string) string {
	return topic + "-" + recordName
}

// SubjectNameStrategyByName resolves a strategy from its configuration name.
// Both the short names ("topic", "record", "topic_record") and the Confluent
// class names are accepted; the empty string selects TopicNameStrategy.
func SubjectNameStrategyByName(name string) (SubjectNameStrategy, error) {
	normalized := strings.ToLower(strings.TrimSpace(name))
	if idx := strings.LastIndex(normalized, "."); idx >= 0 {
		normalized = normalized[idx+1:]
	}
	switch normalized {
	case "", "topic", "topicnamestrategy":
		return TopicNameStrategy, nil
	case "record", "recordnamestrategy":
		return RecordNameStrategy, nil
	case "topic_record", "topicrecord", "topicrecordnamestrategy":
		return TopicRecordNameStrategy, nil
	default:
		return nil, fmt.Errorf("unsupported subject name strategy: %s", name)
	}
}
