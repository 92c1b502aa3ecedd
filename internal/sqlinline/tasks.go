// Package sqlinline centralizes every SQL statement the application runs.
// Each constant carries an audit marker checked by internal/tools/sqllint.
package sqlinline

const QInsertTask = `--sql 9e807a83-8c62-4453-86ad-c9d464b4c215
insert into tasks (id, kind, state, progress, request_json, created_at, updated_at, expires_at)
values ($1, $2, $3, $4, $5, $6, $6, $7);
`

const QClaimNextTask = `--sql a93401f7-fe87-4163-8554-423712938939
with next_task as (
    select id
    from tasks
    where state = 'pending' and expires_at > now()
    order by created_at asc
    for update skip locked
    limit 1
)
update tasks
set state = 'running', updated_at = now()
where id in (select id from next_task)
returning id, kind, request_json, created_at, expires_at;
`

const QSetTaskProgress = `--sql b376124c-fad8-42fa-8728-544bf8a2355a
update tasks
set progress = greatest(progress, $2), updated_at = now()
where id = $1 and state = 'running';
`

const QFinishTask = `--sql 7c47f702-c962-43d7-af49-561aa34636e7
update tasks
set state = $2,
    progress = greatest(progress, $3),
    result_json = $4,
    error_message = $5,
    updated_at = now()
where id = $1 and state not in ('succeeded', 'failed');
`

const QSelectTask = `--sql 452f2c53-c976-4c14-84f7-5fb0bd31e68c
select id, kind, state, progress, request_json, result_json, error_message, created_at, updated_at, expires_at
from tasks
where id = $1;
`
